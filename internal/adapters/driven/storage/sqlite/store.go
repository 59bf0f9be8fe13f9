package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MaterialStore = (*Store)(nil)

const materialColumns = `id, original_filename, safe_name, subject, uploaded_by, status,
	artifacts, quiz_content, error, created_at, started_at, completed_at, failed_at`

// Store is a SQLite-based material store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite database at path and applies migrations.
// If path is empty, defaults to ~/.studypipe/data/materials.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".studypipe", "data", "materials.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrStoreUnavailable, err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStoreUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_materials.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Insert stores a new material.
func (s *Store) Insert(ctx context.Context, m *domain.Material) (string, error) {
	if m.ID == "" {
		return "", fmt.Errorf("%w: material id is required", domain.ErrStore)
	}
	args, err := materialArgs(m)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO materials (`+materialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return "", fmt.Errorf("%w: inserting material: %w", domain.ErrStore, err)
	}
	return m.ID, nil
}

// Update applies a partial update inside a transaction.
func (s *Store) Update(ctx context.Context, id string, u domain.MaterialUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer func() { _ = tx.Rollback() }()

	m, err := scanMaterial(tx.QueryRowContext(ctx,
		"SELECT "+materialColumns+" FROM materials WHERE id = ?", id))
	if err != nil {
		return err
	}

	u.Apply(m)
	args, err := materialArgs(m)
	if err != nil {
		return err
	}
	// args[0] is the id; move it to the WHERE clause.
	_, err = tx.ExecContext(ctx, `
		UPDATE materials SET
			original_filename = ?, safe_name = ?, subject = ?, uploaded_by = ?, status = ?,
			artifacts = ?, quiz_content = ?, error = ?, created_at = ?,
			started_at = ?, completed_at = ?, failed_at = ?
		WHERE id = ?
	`, append(args[1:], id)...)
	if err != nil {
		return fmt.Errorf("%w: updating material: %w", domain.ErrStore, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing update: %w", domain.ErrStore, err)
	}
	return nil
}

// Find retrieves a material by ID.
func (s *Store) Find(ctx context.Context, id string) (*domain.Material, error) {
	return scanMaterial(s.db.QueryRowContext(ctx,
		"SELECT "+materialColumns+" FROM materials WHERE id = ?", id))
}

// List returns materials matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter domain.ListFilter) ([]domain.Material, error) {
	var where []string
	var args []any
	if filter.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, string(filter.Subject))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UploadedBy != "" {
		where = append(where, "uploaded_by = ?")
		args = append(args, filter.UploadedBy)
	}

	query := "SELECT " + materialColumns + " FROM materials"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying materials: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var materials []domain.Material //nolint:prealloc // size unknown from query
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating materials: %w", domain.ErrStore, err)
	}
	return materials, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row scanner) (*domain.Material, error) {
	var m domain.Material
	var subject, status, artifactsJSON string
	var quizJSON sql.NullString
	var createdAt int64
	var startedAt, completedAt, failedAt sql.NullInt64
	if err := row.Scan(&m.ID, &m.OriginalFilename, &m.SafeName, &subject, &m.UploadedBy, &status,
		&artifactsJSON, &quizJSON, &m.Error, &createdAt, &startedAt, &completedAt, &failedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning material: %w", domain.ErrStore, err)
	}

	m.Subject = domain.Subject(subject)
	m.Status = domain.MaterialStatus(status)
	if err := json.Unmarshal([]byte(artifactsJSON), &m.Artifacts); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling artifacts: %w", domain.ErrStore, err)
	}
	if quizJSON.Valid && quizJSON.String != "" {
		if err := json.Unmarshal([]byte(quizJSON.String), &m.QuizContent); err != nil {
			return nil, fmt.Errorf("%w: unmarshaling quiz content: %w", domain.ErrStore, err)
		}
	}
	m.CreatedAt = fromNanos(createdAt)
	m.StartedAt = nullTime(startedAt)
	m.CompletedAt = nullTime(completedAt)
	m.FailedAt = nullTime(failedAt)
	return &m, nil
}

// materialArgs returns column values in materialColumns order.
func materialArgs(m *domain.Material) ([]any, error) {
	artifacts := m.Artifacts
	if artifacts == nil {
		artifacts = domain.ArtifactSet{}
	}
	artifactsJSON, err := json.Marshal(artifacts)
	if err != nil {
		return nil, fmt.Errorf("%w: marshalling artifacts: %w", domain.ErrStore, err)
	}
	var quiz sql.NullString
	if len(m.QuizContent) > 0 {
		data, err := json.Marshal(m.QuizContent)
		if err != nil {
			return nil, fmt.Errorf("%w: marshalling quiz content: %w", domain.ErrStore, err)
		}
		quiz = sql.NullString{String: string(data), Valid: true}
	}
	return []any{
		m.ID, m.OriginalFilename, m.SafeName, string(m.Subject), m.UploadedBy, string(m.Status),
		string(artifactsJSON), quiz, m.Error, m.CreatedAt.UnixNano(),
		nanos(m.StartedAt), nanos(m.CompletedAt), nanos(m.FailedAt),
	}, nil
}

func nanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}
