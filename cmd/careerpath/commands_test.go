package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/config"
	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/shell"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

const emptySnapshot = `{"profile":null,"skills":[],"progress_logs":[]}`

func withNoColor(t *testing.T) {
	t.Helper()
	old := noColor
	noColor = true
	t.Cleanup(func() { noColor = old })
}

func TestProfileField(t *testing.T) {
	tests := []struct {
		key, value string
		want       map[string]any
		wantErr    bool
	}{
		{"full_name", "Ada Lovelace", map[string]any{"full_name": "Ada Lovelace"}, false},
		{"age", " 21 ", map[string]any{"age": 21}, false},
		{"age", "old", nil, true},
		{"education", "bachelor", map[string]any{"education": "bachelor"}, false},
		{"career_interests", "Machine Learning, , Data", map[string]any{"career_interests": []string{"Machine Learning", "Data"}}, false},
		{"current_skills", "", map[string]any{"current_skills": []string{}}, false},
		{"nickname", "x", nil, true},
	}
	for _, tt := range tests {
		got, err := profileField(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("profileField(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("profileField(%q, %q) = %v, want %v", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestProfileSet(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PATCH /profile": `{"profile":{"user_id":"local","education":"master","profile_completion":17},"skills":[],"progress_logs":[]}`,
	})

	body, _ := profileField("education", "master")
	resp, err := ts.client().patch(ctx, "/profile", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := decodeJSON(resp, nil); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent["education"] != "master" {
		t.Errorf("sent body = %v", sent)
	}
}

func TestMergeSkills(t *testing.T) {
	merged, added := mergeSkills([]string{"Go", "SQL"}, []string{"go", "Docker", "sql", "Kubernetes", "docker"})
	want := []string{"Go", "SQL", "Docker", "Kubernetes"}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("merged = %v, want %v", merged, want)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}

	merged, added = mergeSkills(nil, []string{"Go"})
	if added != 1 || len(merged) != 1 {
		t.Errorf("merge into empty = %v (%d)", merged, added)
	}
}

func TestSkillsImport_MissingFile(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"skills", "import"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing --file")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestShowView_Dashboard(t *testing.T) {
	withNoColor(t)
	d := roadmap.BuildDashboard(50, []string{"Web Development"}, []roadmap.Skill{{Name: "HTML", Mastery: 40}})
	data, _ := json.Marshal(d)
	ts := newTestServer(t, map[string]string{"GET /dashboard": string(data)})

	var out bytes.Buffer
	if err := showView(ctx, &out, ts.client(), shell.ViewDashboard); err != nil {
		t.Fatalf("showView: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		d.Headline,
		roadmap.NextStepCompleteProfile,
		"Reach 70% average skill mastery to unlock curated internships.",
		"Web Development",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShowView_Roadmap(t *testing.T) {
	withNoColor(t)
	plan := roadmap.Build([]string{"Data Science"}, []roadmap.Skill{{Name: "Python", Mastery: 90}})
	data, _ := json.Marshal(plan)
	ts := newTestServer(t, map[string]string{"GET /roadmap": string(data)})

	var out bytes.Buffer
	if err := showView(ctx, &out, ts.client(), shell.ViewRoadmap); err != nil {
		t.Fatalf("showView: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, plan.Title) {
		t.Errorf("output missing title %q:\n%s", plan.Title, got)
	}
	if !strings.Contains(got, "[x] Python Programming") {
		t.Errorf("expected Python Programming to be checked:\n%s", got)
	}
	if !strings.Contains(got, "Phase 4: Job Preparation") {
		t.Errorf("expected all phases:\n%s", got)
	}
}

func TestShowView_ProfileMissing(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{"GET /snapshot": emptySnapshot})

	var out bytes.Buffer
	if err := showView(ctx, &out, ts.client(), shell.ViewProfile); err != nil {
		t.Fatalf("showView: %v", err)
	}
	if !strings.Contains(out.String(), "No profile yet") {
		t.Errorf("output = %s", out.String())
	}
}

func TestShowView_AdvisorIsLocal(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	var out bytes.Buffer
	if err := showView(ctx, &out, ts.client(), shell.ViewAdvisor); err != nil {
		t.Fatalf("showView: %v", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("advisor view made %d requests", len(ts.requests))
	}
	if !strings.Contains(out.String(), advisor.Suggestions[0]) {
		t.Errorf("output missing suggestions:\n%s", out.String())
	}
}

func TestConsole(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /snapshot": `{"profile":{"user_id":"local","career_interests":[]},"skills":[{"skill_name":"CSS","mastery_level":10}],"progress_logs":[]}`,
		"GET /roadmap":  `{"needs_interests":true,"message":"` + roadmap.PlaceholderMessage + `"}`,
	})

	var out bytes.Buffer
	c := &console{
		client: ts.client(),
		conv:   advisor.NewConversation(advisor.New(advisor.WithDelay(0, 0))),
		nav:    shell.NewNavigator(),
		out:    &out,
	}

	in := strings.NewReader("/menu\n/view roadmap\nWhat skill should I learn?\n/bogus\n/history\n/quit\nnever read\n")
	if err := c.run(ctx, in); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := c.nav.Current(); got != shell.ViewRoadmap {
		t.Errorf("current view = %q, want roadmap", got)
	}
	if c.nav.SidebarOpen() {
		t.Error("selecting a view should close the menu")
	}

	msgs := c.conv.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if !strings.Contains(msgs[2].Content, "your CSS skill") {
		t.Errorf("reply = %q", msgs[2].Content)
	}

	got := out.String()
	for _, want := range []string{"Skills Tracker", roadmap.PlaceholderMessage, advisor.Greeting} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConsole_EOF(t *testing.T) {
	c := &console{
		client: newTestServer(t, nil).client(),
		conv:   advisor.NewConversation(advisor.New(advisor.WithDelay(0, 0))),
		nav:    shell.NewNavigator(),
		out:    &bytes.Buffer{},
	}
	if err := c.run(ctx, strings.NewReader("")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(c.conv.Messages()); n != 1 {
		t.Errorf("got %d messages, want only the greeting", n)
	}
}

func TestMintToken(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "cli-secret"

	token, err := mintToken(cfg, identity.Identity{ID: "alice", Email: "a@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}

	signer, _ := identity.NewSigner("cli-secret", time.Hour)
	id, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.ID != "alice" || id.Email != "a@example.com" {
		t.Errorf("identity = %+v", id)
	}

	if _, err := mintToken(config.Config{}, identity.Identity{ID: "alice"}, time.Hour); err == nil {
		t.Error("expected error without a secret")
	}
}

func TestStatusCommand_Running(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	resp, err := ts.client().get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"

	if _, err := client.get(ctx, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"error":{"message":"education: must be one of high-school, associate, bachelor, master, phd","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, token: "t", httpClient: ts.Client()}
	resp, err := client.patch(ctx, "/profile", map[string]string{"education": "college"})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	err = decodeJSON(resp, nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if err.Error() != "server returned 400: education: must be one of high-school, associate, bachelor, master, phd" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "[....................]"},
		{50, "[##########..........]"},
		{100, "[####################]"},
		{140, "[####################]"},
		{-3, "[....................]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct); got != tt.want {
			t.Errorf("progressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4100
	cfg.Auth.JWTSecret = "hidden"

	found := false
	for _, k := range config.ShowAll(cfg) {
		if k.Key == "server.port" && k.Value == "4100" {
			found = true
		}
		if k.Value == "hidden" {
			t.Errorf("secret leaked via %s", k.Key)
		}
	}
	if !found {
		t.Error("expected to find server.port=4100 in ShowAll output")
	}
}
