package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/tracker"
)

type AppDeps struct {
	Store       tracker.Gateway
	Signer      *identity.Signer
	Advisor     *advisor.Advisor
	CORSOrigins []string
	Logger      *slog.Logger // optional; defaults to slog.Default()
}

func (d AppDeps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// session builds a tracker session for the caller and loads its snapshot.
func (d AppDeps) session(r *http.Request) *tracker.Session {
	id, _ := identity.FromContext(r.Context())
	s := tracker.NewSession(d.Store, id, tracker.WithLogger(d.logger()))
	s.Refresh(r.Context())
	return s
}

// NewAppHandler returns the JSON API. Everything but /health requires a
// bearer token signed by deps.Signer.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(IdentityAuth(deps.Signer))

		r.Get("/snapshot", handleGetSnapshot(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
		r.Get("/skills", handleListSkills(deps))
		r.Put("/skills/{name}", handleSetMastery(deps))
		r.Get("/progress", handleListProgress(deps))
		r.Post("/progress", handleLogProgress(deps))
		r.Get("/roadmap", handleRoadmap(deps))
		r.Get("/dashboard", handleDashboard(deps))
		r.Get("/advisor", handleAdvisorInfo)
		r.Post("/advisor", handleAdvisor(deps))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}

func handleGetSnapshot(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.session(r).Snapshot())
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.session(r).Snapshot()
		if snap.Profile == nil {
			httpError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		writeJSON(w, http.StatusOK, snap.Profile)
	}
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var patch tracker.ProfilePatch
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if patch.Empty() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no profile fields to update")
			return
		}

		s := deps.session(r)
		if _, err := s.UpdateProfile(r.Context(), patch); err != nil {
			writeError(w, deps.logger(), err)
			return
		}
		s.Refresh(r.Context())
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

func handleListSkills(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.session(r).Snapshot().Skills)
	}
}

type masteryRequest struct {
	MasteryLevel *int `json:"mastery_level"`
}

func handleSetMastery(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// chi returns the raw segment only when the path needed escaping.
		name := chi.URLParam(r, "name")
		if r.URL.RawPath != "" {
			var err error
			if name, err = url.PathUnescape(name); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid skill name: %v", err)
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req masteryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.MasteryLevel == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "mastery_level is required")
			return
		}

		s := deps.session(r)
		if err := s.UpdateSkillProgress(r.Context(), name, *req.MasteryLevel); err != nil {
			writeError(w, deps.logger(), err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot().Skills)
	}
}

func handleListProgress(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", tracker.ProgressLogLimit, tracker.ProgressLogLimit)
		logs := deps.session(r).Snapshot().ProgressLogs
		if len(logs) > limit {
			logs = logs[:limit]
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

type progressRequest struct {
	SkillName      string `json:"skill_name"`
	ProgressAmount *int   `json:"progress_amount"`
	Notes          string `json:"notes"`
}

func handleLogProgress(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req progressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ProgressAmount == nil {
			writeError(w, deps.logger(), &tracker.ValidationError{Field: "progress_amount", Reason: "is required"})
			return
		}

		s := deps.session(r)
		if _, err := s.LogProgress(r.Context(), req.SkillName, *req.ProgressAmount, req.Notes); err != nil {
			writeError(w, deps.logger(), err)
			return
		}
		writeJSON(w, http.StatusCreated, s.Snapshot())
	}
}

func handleRoadmap(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.session(r).Snapshot()
		writeJSON(w, http.StatusOK, roadmap.Build(snap.Interests(), snap.RoadmapSkills()))
	}
}

func handleDashboard(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.session(r).Snapshot()
		writeJSON(w, http.StatusOK, roadmap.BuildDashboard(snap.Completion(), snap.Interests(), snap.RoadmapSkills()))
	}
}

func handleAdvisorInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"greeting":    advisor.Greeting,
		"suggestions": advisor.Suggestions,
	})
}

type advisorRequest struct {
	Message string `json:"message"`
}

func handleAdvisor(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req advisorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		msg := strings.TrimSpace(req.Message)
		if msg == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		snap := deps.session(r).Snapshot()
		reply, err := deps.Advisor.Reply(r.Context(), msg, advisorContext(snap))
		if err != nil {
			if r.Context().Err() != nil {
				// Client went away before the reply.
				return
			}
			writeError(w, deps.logger(), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}
}

func advisorContext(snap tracker.Snapshot) advisor.Context {
	return advisor.Context{Skills: snap.RoadmapSkills(), Interests: snap.Interests()}
}
