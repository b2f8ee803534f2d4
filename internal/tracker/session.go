// Package tracker keeps a user's profile, skills and progress log in step
// with the store. A Session is the only writer; everything else reads
// Snapshot copies.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/storage"
)

// ProgressLogLimit is how many recent progress logs a snapshot holds.
const ProgressLogLimit = 50

// Gateway defines the storage operations a Session needs.
// Implemented by storage.Store.
type Gateway interface {
	GetProfile(ctx context.Context, userID string) (storage.Profile, error)
	UpsertProfile(ctx context.Context, p storage.Profile) (storage.Profile, error)
	ListSkills(ctx context.Context, userID string) ([]storage.Skill, error)
	InsertSkills(ctx context.Context, userID string, names []string, at time.Time) error
	DeleteSkills(ctx context.Context, userID string, names []string) error
	UpdateSkillMastery(ctx context.Context, userID, name string, level int, at time.Time) error
	RecordProgress(ctx context.Context, l storage.ProgressLog) (storage.ProgressLog, error)
	ListProgressLogs(ctx context.Context, userID string, limit int) ([]storage.ProgressLog, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Snapshot is the in-memory view of one user's data.
type Snapshot struct {
	Profile      *storage.Profile      `json:"profile"`
	Skills       []storage.Skill       `json:"skills"`
	ProgressLogs []storage.ProgressLog `json:"progress_logs"`
}

// Interests returns the profile's career interests, nil without a profile.
func (s Snapshot) Interests() []string {
	if s.Profile == nil {
		return nil
	}
	return s.Profile.CareerInterests
}

// Completion returns the stored profile completion, 0 without a profile.
func (s Snapshot) Completion() int {
	if s.Profile == nil {
		return 0
	}
	return s.Profile.ProfileCompletion
}

// RoadmapSkills projects skills into the roadmap engine's input type.
func (s Snapshot) RoadmapSkills() []roadmap.Skill {
	out := make([]roadmap.Skill, len(s.Skills))
	for i, sk := range s.Skills {
		out[i] = roadmap.Skill{Name: sk.SkillName, Mastery: sk.MasteryLevel}
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	var cp Snapshot
	if s.Profile != nil {
		p := *s.Profile
		p.CurrentSkills = append([]string(nil), s.Profile.CurrentSkills...)
		p.CareerInterests = append([]string(nil), s.Profile.CareerInterests...)
		if s.Profile.Age != nil {
			age := *s.Profile.Age
			p.Age = &age
		}
		cp.Profile = &p
	}
	cp.Skills = append([]storage.Skill{}, s.Skills...)
	cp.ProgressLogs = make([]storage.ProgressLog, len(s.ProgressLogs))
	for i, l := range s.ProgressLogs {
		if l.Notes != nil {
			n := *l.Notes
			l.Notes = &n
		}
		cp.ProgressLogs[i] = l
	}
	return cp
}

// Session reconciles one identity's data with the store.
type Session struct {
	gw     Gateway
	id     identity.Identity
	clock  Clock
	logger *slog.Logger

	loading atomic.Bool

	mu   sync.RWMutex
	snap Snapshot
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source (for testing).
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the logger used for isolated read and sync failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a Session for id. An empty id.ID means nobody is signed in.
func NewSession(gw Gateway, id identity.Identity, opts ...Option) *Session {
	s := &Session{
		gw:     gw,
		id:     id,
		clock:  realClock{},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Identity returns the session's user.
func (s *Session) Identity() identity.Identity { return s.id }

func (s *Session) signedIn() bool { return s.id.ID != "" }

// Loading reports whether a Refresh is in progress.
func (s *Session) Loading() bool { return s.loading.Load() }

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Refresh re-reads profile, skills and recent progress logs concurrently. A
// failing read is logged and leaves that slice empty. Without an identity the
// snapshot is cleared.
func (s *Session) Refresh(ctx context.Context) {
	if !s.signedIn() {
		s.mu.Lock()
		s.snap = Snapshot{}
		s.mu.Unlock()
		return
	}

	s.loading.Store(true)
	defer s.loading.Store(false)

	var (
		profile *storage.Profile
		skills  []storage.Skill
		logs    []storage.ProgressLog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.gw.GetProfile(gctx, s.id.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			s.logger.Warn("fetching profile", "user", s.id.ID, "error", err)
		default:
			profile = &p
		}
		return nil
	})
	g.Go(func() error {
		skills = s.fetchSkills(gctx)
		return nil
	})
	g.Go(func() error {
		logs = s.fetchLogs(gctx)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	s.snap = Snapshot{Profile: profile, Skills: skills, ProgressLogs: logs}
	s.mu.Unlock()
}

func (s *Session) fetchSkills(ctx context.Context) []storage.Skill {
	skills, err := s.gw.ListSkills(ctx, s.id.ID)
	if err != nil {
		s.logger.Warn("fetching skills", "user", s.id.ID, "error", err)
		return []storage.Skill{}
	}
	if skills == nil {
		skills = []storage.Skill{}
	}
	return skills
}

func (s *Session) fetchLogs(ctx context.Context) []storage.ProgressLog {
	logs, err := s.gw.ListProgressLogs(ctx, s.id.ID, ProgressLogLimit)
	if err != nil {
		s.logger.Warn("fetching progress logs", "user", s.id.ID, "error", err)
		return []storage.ProgressLog{}
	}
	if logs == nil {
		logs = []storage.ProgressLog{}
	}
	return logs
}

func (s *Session) reloadSkills(ctx context.Context) {
	skills := s.fetchSkills(ctx)
	s.mu.Lock()
	s.snap.Skills = skills
	s.mu.Unlock()
}

func (s *Session) reloadLogs(ctx context.Context) {
	logs := s.fetchLogs(ctx)
	s.mu.Lock()
	s.snap.ProgressLogs = logs
	s.mu.Unlock()
}

// UpdateProfile merges patch onto the stored profile, recomputes completion
// and upserts it. When the patch carries current skills, the skill rows are
// synchronized to match. The snapshot is untouched on failure.
func (s *Session) UpdateProfile(ctx context.Context, patch ProfilePatch) (storage.Profile, error) {
	if !s.signedIn() {
		return storage.Profile{}, ErrNoIdentity
	}
	if err := patch.validate(); err != nil {
		return storage.Profile{}, err
	}

	base, err := s.gw.GetProfile(ctx, s.id.ID)
	if errors.Is(err, storage.ErrNotFound) {
		base = storage.Profile{UserID: s.id.ID}
	} else if err != nil {
		return storage.Profile{}, &PersistenceError{Op: "loading profile", Err: err}
	}

	merged := patch.apply(base)
	merged.UpdatedAt = s.clock.Now()

	saved, err := s.gw.UpsertProfile(ctx, merged)
	if err != nil {
		return storage.Profile{}, &PersistenceError{Op: "saving profile", Err: err}
	}

	s.mu.Lock()
	p := saved
	s.snap.Profile = &p
	s.mu.Unlock()

	if patch.CurrentSkills != nil {
		s.syncSkills(ctx, saved.CurrentSkills)
	}
	return saved, nil
}

// syncSkills makes the stored skill names equal names. New names start at
// mastery 0, missing ones are deleted and the rest keep their mastery.
func (s *Session) syncSkills(ctx context.Context, names []string) {
	existing, err := s.gw.ListSkills(ctx, s.id.ID)
	if err != nil {
		s.logger.Warn("listing skills for sync", "user", s.id.ID, "error", err)
	} else {
		toAdd, toRemove := diffSkills(existing, names)
		if err := s.gw.InsertSkills(ctx, s.id.ID, toAdd, s.clock.Now()); err != nil {
			s.logger.Warn("adding skills", "user", s.id.ID, "skills", toAdd, "error", err)
		}
		if err := s.gw.DeleteSkills(ctx, s.id.ID, toRemove); err != nil {
			s.logger.Warn("removing skills", "user", s.id.ID, "skills", toRemove, "error", err)
		}
	}
	s.reloadSkills(ctx)
}

func diffSkills(existing []storage.Skill, names []string) (toAdd, toRemove []string) {
	have := make(map[string]struct{}, len(existing))
	for _, sk := range existing {
		have[sk.SkillName] = struct{}{}
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
		if _, ok := have[n]; !ok {
			toAdd = append(toAdd, n)
		}
	}
	for _, sk := range existing {
		if _, ok := want[sk.SkillName]; !ok {
			toRemove = append(toRemove, sk.SkillName)
		}
	}
	return toAdd, toRemove
}

// UpdateSkillProgress sets the clamped mastery of one skill.
func (s *Session) UpdateSkillProgress(ctx context.Context, name string, level int) error {
	if !s.signedIn() {
		return ErrNoIdentity
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "skill_name", Reason: "must not be empty"}
	}
	if err := s.gw.UpdateSkillMastery(ctx, s.id.ID, name, Clamp(level), s.clock.Now()); err != nil {
		return &PersistenceError{Op: "updating mastery", Err: err}
	}
	s.reloadSkills(ctx)
	return nil
}

// LogProgress records a progress event and sets the skill's mastery to the
// same clamped amount. Both writes commit together or not at all.
func (s *Session) LogProgress(ctx context.Context, name string, amount int, notes string) (storage.ProgressLog, error) {
	if !s.signedIn() {
		return storage.ProgressLog{}, ErrNoIdentity
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.ProgressLog{}, &ValidationError{Field: "skill_name", Reason: "must not be empty"}
	}

	entry := storage.ProgressLog{
		UserID:         s.id.ID,
		SkillName:      name,
		ProgressAmount: Clamp(amount),
		CreatedAt:      s.clock.Now(),
	}
	if n := strings.TrimSpace(notes); n != "" {
		entry.Notes = &n
	}

	saved, err := s.gw.RecordProgress(ctx, entry)
	if err != nil {
		return storage.ProgressLog{}, &PersistenceError{Op: "logging progress", Err: err}
	}

	s.reloadSkills(ctx)
	s.reloadLogs(ctx)
	return saved, nil
}
