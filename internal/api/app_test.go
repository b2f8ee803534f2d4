package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/storage"
	"github.com/kalambet/careerpath/internal/tracker"
)

const testSecret = "test-secret-12345"

func newTestSigner(t *testing.T) *identity.Signer {
	t.Helper()
	s, err := identity.NewSigner(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAppHandler(t *testing.T) (http.Handler, *storage.Store, *identity.Signer) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	signer := newTestSigner(t)
	handler := NewAppHandler(AppDeps{
		Store:       store,
		Signer:      signer,
		Advisor:     advisor.New(advisor.WithSource(rand.NewPCG(1, 1)), advisor.WithDelay(0, 0)),
		CORSOrigins: []string{"http://localhost:5173"},
		Logger:      testLogger(),
	})
	return handler, store, signer
}

func tokenFor(t *testing.T, signer *identity.Signer, userID string) string {
	t.Helper()
	tok, err := signer.Issue(identity.Identity{ID: userID})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]map[string]string](t, w)
	return body["error"]["type"]
}

func TestHealth(t *testing.T) {
	h, _, _ := setupAppHandler(t)

	w := serve(h, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestAuth_Rejected(t *testing.T) {
	h, _, _ := setupAppHandler(t)

	other, _ := identity.NewSigner("another-secret", time.Hour)
	badTok, _ := other.Issue(identity.Identity{ID: "u1"})

	for _, tok := range []string{"", "garbage", badTok} {
		w := serve(h, authReq("GET", "/snapshot", "", tok))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: expected 401, got %d", tok, w.Code)
			continue
		}
		if typ := errorType(t, w); typ != "authentication_error" {
			t.Errorf("error type = %q", typ)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := setupAppHandler(t)

	req := httptest.NewRequest("OPTIONS", "/profile", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := serve(h, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/profile", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w = serve(h, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin for foreign origin: %q", got)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	h, _, signer := setupAppHandler(t)

	w := serve(h, authReq("GET", "/profile", "", tokenFor(t, signer, "u1")))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if typ := errorType(t, w); typ != "not_found" {
		t.Errorf("error type = %q", typ)
	}
}

func TestPatchProfile(t *testing.T) {
	h, store, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	body := `{"full_name":"Ada","age":21,"education":"bachelor","timeline":"1-year","current_skills":["HTML/CSS","JavaScript"],"career_interests":["Frontend"]}`
	w := serve(h, authReq("PATCH", "/profile", body, tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	snap := decodeBody[tracker.Snapshot](t, w)
	if snap.Profile == nil || snap.Profile.ProfileCompletion != 100 {
		t.Fatalf("profile = %+v", snap.Profile)
	}
	if len(snap.Skills) != 2 {
		t.Errorf("got %d skills, want 2", len(snap.Skills))
	}

	p, err := store.GetProfile(t.Context(), "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.FullName != "Ada" {
		t.Errorf("stored name = %q", p.FullName)
	}

	w = serve(h, authReq("GET", "/profile", "", tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeBody[storage.Profile](t, w)
	if got.UserID != "u1" || got.Education != "bachelor" {
		t.Errorf("GET /profile = %+v", got)
	}
}

func TestPatchProfile_Invalid(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown field", `{"nickname":"x"}`},
		{"empty patch", `{}`},
		{"bad enum", `{"education":"college"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, authReq("PATCH", "/profile", tt.body, tok))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if typ := errorType(t, w); typ != "invalid_request_error" {
				t.Errorf("error type = %q", typ)
			}
		})
	}
}

func TestUsersAreIsolated(t *testing.T) {
	h, _, signer := setupAppHandler(t)

	serve(h, authReq("PATCH", "/profile", `{"current_skills":["Go"]}`, tokenFor(t, signer, "u1")))

	w := serve(h, authReq("GET", "/skills", "", tokenFor(t, signer, "u2")))
	skills := decodeBody[[]storage.Skill](t, w)
	if len(skills) != 0 {
		t.Errorf("u2 sees u1's skills: %+v", skills)
	}
}

func TestSetMastery(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	serve(h, authReq("PATCH", "/profile", `{"current_skills":["Machine Learning"]}`, tok))

	w := serve(h, authReq("PUT", "/skills/Machine%20Learning", `{"mastery_level":140}`, tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	skills := decodeBody[[]storage.Skill](t, w)
	if len(skills) != 1 || skills[0].MasteryLevel != 100 {
		t.Errorf("skills = %+v, want clamped 100", skills)
	}

	w = serve(h, authReq("PUT", "/skills/Go", `{}`, tok))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing mastery_level: expected 400, got %d", w.Code)
	}
}

func TestSetMastery_EscapedNames(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	names := []string{"TensorFlow/PyTorch", "C++", "100% Go", "a%41"}
	body, _ := json.Marshal(map[string][]string{"current_skills": names})
	if w := serve(h, authReq("PATCH", "/profile", string(body), tok)); w.Code != http.StatusOK {
		t.Fatalf("PATCH /profile: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	for i, name := range names {
		level := 10 * (i + 1)
		w := serve(h, authReq("PUT", "/skills/"+url.PathEscape(name), fmt.Sprintf(`{"mastery_level":%d}`, level), tok))
		if w.Code != http.StatusOK {
			t.Fatalf("PUT %q: expected 200, got %d: %s", name, w.Code, w.Body.String())
		}
	}

	w := serve(h, authReq("GET", "/skills", "", tok))
	got := make(map[string]int)
	for _, sk := range decodeBody[[]storage.Skill](t, w) {
		got[sk.SkillName] = sk.MasteryLevel
	}
	for i, name := range names {
		if got[name] != 10*(i+1) {
			t.Errorf("%q mastery = %d, want %d", name, got[name], 10*(i+1))
		}
	}
	if _, ok := got["aA"]; ok {
		t.Error("a%41 was decoded twice into aA")
	}
}

func TestLogProgress(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	serve(h, authReq("PATCH", "/profile", `{"current_skills":["SQL"]}`, tok))

	w := serve(h, authReq("POST", "/progress", `{"skill_name":"SQL","progress_amount":65,"notes":"joins"}`, tok))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	snap := decodeBody[tracker.Snapshot](t, w)
	if len(snap.ProgressLogs) != 1 || snap.ProgressLogs[0].ProgressAmount != 65 {
		t.Errorf("logs = %+v", snap.ProgressLogs)
	}
	if snap.Skills[0].MasteryLevel != 65 {
		t.Errorf("mastery = %d, want 65", snap.Skills[0].MasteryLevel)
	}

	w = serve(h, authReq("GET", "/progress?limit=1", "", tok))
	logs := decodeBody[[]storage.ProgressLog](t, w)
	if len(logs) != 1 {
		t.Errorf("got %d logs, want 1", len(logs))
	}
}

func TestLogProgress_Validation(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	for _, body := range []string{`{"skill_name":"SQL"}`, `{"skill_name":"  ","progress_amount":10}`} {
		w := serve(h, authReq("POST", "/progress", body, tok))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestRoadmapAndDashboard(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	w := serve(h, authReq("GET", "/roadmap", "", tok))
	plan := decodeBody[roadmap.Plan](t, w)
	if !plan.NeedsInterests {
		t.Errorf("expected placeholder plan without interests, got %+v", plan)
	}

	serve(h, authReq("PATCH", "/profile", `{"career_interests":["Machine Learning"],"current_skills":["Python"]}`, tok))
	serve(h, authReq("PUT", "/skills/Python", `{"mastery_level":90}`, tok))

	w = serve(h, authReq("GET", "/roadmap", "", tok))
	plan = decodeBody[roadmap.Plan](t, w)
	if plan.Track != roadmap.TrackAIML || len(plan.Phases) != 4 {
		t.Errorf("plan = %+v", plan)
	}

	w = serve(h, authReq("GET", "/dashboard", "", tok))
	d := decodeBody[roadmap.Dashboard](t, w)
	if !d.Unlocked {
		t.Error("dashboard should be unlocked with a skill at 90")
	}
	if d.NextStep != roadmap.NextStepCompleteProfile {
		t.Errorf("NextStep = %q", d.NextStep)
	}
}

func TestAdvisor(t *testing.T) {
	h, _, signer := setupAppHandler(t)
	tok := tokenFor(t, signer, "u1")

	serve(h, authReq("PATCH", "/profile", `{"current_skills":["CSS","JS"]}`, tok))
	serve(h, authReq("PUT", "/skills/CSS", `{"mastery_level":20}`, tok))
	serve(h, authReq("PUT", "/skills/JS", `{"mastery_level":90}`, tok))

	w := serve(h, authReq("POST", "/advisor", `{"message":"Which skill should I work on?"}`, tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	reply := decodeBody[map[string]string](t, w)["reply"]
	if !strings.Contains(reply, "your CSS skill") {
		t.Errorf("reply = %q", reply)
	}

	w = serve(h, authReq("POST", "/advisor", `{"message":"  "}`, tok))
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank message: expected 400, got %d", w.Code)
	}

	w = serve(h, authReq("GET", "/advisor", "", tok))
	info := decodeBody[map[string]any](t, w)
	if info["greeting"] != advisor.Greeting {
		t.Errorf("greeting = %v", info["greeting"])
	}
}
