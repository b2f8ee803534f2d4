package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so that text comparison orders rows chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is the data gateway for profiles, skills and progress logs. It runs
// on an embedded SQLite file or a hosted Postgres database.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "careerpath.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	return newStore(db, dialectSQLite)
}

// OpenPostgres connects to a hosted Postgres database (e.g. a Supabase
// project) and runs pending migrations.
func OpenPostgres(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty database URL")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return newStore(db, dialectPostgres)
}

func newStore(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow(s.rebind("SELECT COUNT(*) FROM schema_version WHERE version = ?"), version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec(s.rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"), version, formatTime(time.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// --- Profiles ---

const profileColumns = `id, user_id, full_name, age, education, timeline, current_skills, career_interests, profile_completion, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	var age sql.NullInt64
	var skillsJSON, interestsJSON, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.UserID, &p.FullName, &age, &p.Education, &p.Timeline,
		&skillsJSON, &interestsJSON, &p.ProfileCompletion, &createdAt, &updatedAt); err != nil {
		return Profile{}, err
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if err := json.Unmarshal([]byte(skillsJSON), &p.CurrentSkills); err != nil {
		return Profile{}, fmt.Errorf("parsing current_skills: %w", err)
	}
	if err := json.Unmarshal([]byte(interestsJSON), &p.CareerInterests); err != nil {
		return Profile{}, fmt.Errorf("parsing career_interests: %w", err)
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Profile{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Profile{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}

// GetProfile returns the profile row for userID, or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`), userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UpsertProfile inserts or replaces the profile keyed by p.UserID and returns
// the stored row. The id and created_at of an existing row are preserved.
func (s *Store) UpsertProfile(ctx context.Context, p Profile) (Profile, error) {
	if p.UserID == "" {
		return Profile{}, fmt.Errorf("upserting profile: empty user id")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	skillsJSON, err := marshalList(p.CurrentSkills)
	if err != nil {
		return Profile{}, fmt.Errorf("marshalling current_skills: %w", err)
	}
	interestsJSON, err := marshalList(p.CareerInterests)
	if err != nil {
		return Profile{}, fmt.Errorf("marshalling career_interests: %w", err)
	}

	var age sql.NullInt64
	if p.Age != nil {
		age = sql.NullInt64{Int64: int64(*p.Age), Valid: true}
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			age = excluded.age,
			education = excluded.education,
			timeline = excluded.timeline,
			current_skills = excluded.current_skills,
			career_interests = excluded.career_interests,
			profile_completion = excluded.profile_completion,
			updated_at = excluded.updated_at
		RETURNING `+profileColumns),
		p.ID, p.UserID, p.FullName, age, p.Education, p.Timeline, skillsJSON, interestsJSON,
		p.ProfileCompletion, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return scanProfile(row)
}

func marshalList(items []string) (string, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --- Skills ---

// ListSkills returns the skills of userID, oldest first.
func (s *Store) ListSkills(ctx context.Context, userID string) ([]Skill, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, skill_name, mastery_level, created_at, updated_at
		FROM skills WHERE user_id = ? ORDER BY created_at ASC, skill_name ASC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Skill
	for rows.Next() {
		var sk Skill
		var createdAt, updatedAt string
		if err := rows.Scan(&sk.ID, &sk.UserID, &sk.SkillName, &sk.MasteryLevel, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if sk.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if sk.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		results = append(results, sk)
	}
	return results, rows.Err()
}

// InsertSkills adds the named skills for userID at mastery 0. Names that
// already exist are left as they are.
func (s *Store) InsertSkills(ctx context.Context, userID string, names []string, at time.Time) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.rebind(`
		INSERT INTO skills (id, user_id, skill_name, mastery_level, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT (user_id, skill_name) DO NOTHING`)
	ts := formatTime(at)
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, query, uuid.New().String(), userID, name, ts, ts); err != nil {
			return fmt.Errorf("inserting skill %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// DeleteSkills removes the named skills of userID.
func (s *Store) DeleteSkills(ctx context.Context, userID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	placeholders := strings.Repeat(",?", len(names)-1)
	args := make([]any, 0, len(names)+1)
	args = append(args, userID)
	for _, n := range names {
		args = append(args, n)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM skills WHERE user_id = ? AND skill_name IN (?`+placeholders+`)`), args...)
	return err
}

// UpdateSkillMastery sets the mastery of one skill. Updating a skill that does
// not exist is a no-op.
func (s *Store) UpdateSkillMastery(ctx context.Context, userID, name string, level int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE skills SET mastery_level = ?, updated_at = ? WHERE user_id = ? AND skill_name = ?`),
		level, formatTime(at), userID, name,
	)
	return err
}

// --- Progress logs ---

// RecordProgress appends a progress log and sets the matching skill's mastery
// to the logged amount in one transaction.
func (s *Store) RecordProgress(ctx context.Context, l ProgressLog) (ProgressLog, error) {
	if l.ID == "" {
		// v7 ids sort by creation time, breaking created_at ties.
		l.ID = uuid.Must(uuid.NewV7()).String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ProgressLog{}, fmt.Errorf("beginning progress transaction: %w", err)
	}
	defer tx.Rollback()

	var notes sql.NullString
	if l.Notes != nil {
		notes = sql.NullString{String: *l.Notes, Valid: true}
	}
	ts := formatTime(l.CreatedAt)

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO progress_logs (id, user_id, skill_name, progress_amount, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		l.ID, l.UserID, l.SkillName, l.ProgressAmount, notes, ts,
	); err != nil {
		return ProgressLog{}, fmt.Errorf("inserting progress log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE skills SET mastery_level = ?, updated_at = ? WHERE user_id = ? AND skill_name = ?`),
		l.ProgressAmount, ts, l.UserID, l.SkillName,
	); err != nil {
		return ProgressLog{}, fmt.Errorf("updating mastery: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ProgressLog{}, fmt.Errorf("committing progress: %w", err)
	}
	return l, nil
}

// ListProgressLogs returns up to limit logs of userID, newest first.
func (s *Store) ListProgressLogs(ctx context.Context, userID string, limit int) ([]ProgressLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, skill_name, progress_amount, notes, created_at
		FROM progress_logs WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProgressLog
	for rows.Next() {
		var l ProgressLog
		var notes sql.NullString
		var createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.SkillName, &l.ProgressAmount, &notes, &createdAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			n := notes.String
			l.Notes = &n
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
