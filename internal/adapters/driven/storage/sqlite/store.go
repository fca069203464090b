// Package sqlite persists the canonical record set and per-source
// collect cursors in a single SQLite database. Records are appended as
// they are inserted, so partial progress from a terminated run is
// never lost, and the whole set can be reloaded to rebuild the
// unifier's digest index.
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

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed metadata store providing the record and
// collect-state interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.harvest/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".harvest", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
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

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// CollectStateStore returns a CollectStateStore interface backed by
// this store.
func (s *Store) CollectStateStore() driven.CollectStateStore {
	return &collectStateStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// Save inserts a record. The UNIQUE constraint on content_hash backs
// the global digest-uniqueness invariant at the persistence layer.
func (s *recordStore) Save(ctx context.Context, record *domain.CanonicalRecord) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO records (global_id, source_id, item_ref, content_type,
			content_hash, content_length, storage_path, fields, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.GlobalID, record.SourceID, record.ItemRef, record.ContentType,
		record.ContentHash, record.ContentLength, record.StoragePath,
		string(fieldsJSON), record.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Replace overwrites the record holding the same content hash.
func (s *recordStore) Replace(ctx context.Context, record *domain.CanonicalRecord) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE records SET global_id = ?, source_id = ?, item_ref = ?,
			content_type = ?, content_length = ?, storage_path = ?,
			fields = ?, created_at = ?
		WHERE content_hash = ?
	`, record.GlobalID, record.SourceID, record.ItemRef, record.ContentType,
		record.ContentLength, record.StoragePath, string(fieldsJSON),
		record.CreatedAt, record.ContentHash)

	if err != nil {
		return fmt.Errorf("replacing record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replacing record: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a record by global ID.
func (s *recordStore) Get(ctx context.Context, globalID string) (*domain.CanonicalRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT global_id, source_id, item_ref, content_type, content_hash,
			content_length, storage_path, fields, created_at
		FROM records WHERE global_id = ?
	`, globalID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns all records in insertion order.
func (s *recordStore) List(ctx context.Context) ([]domain.CanonicalRecord, error) {
	return s.query(ctx, `
		SELECT global_id, source_id, item_ref, content_type, content_hash,
			content_length, storage_path, fields, created_at
		FROM records ORDER BY created_at, global_id
	`)
}

// ListBySource returns records first seen via one source.
func (s *recordStore) ListBySource(ctx context.Context, sourceID string) ([]domain.CanonicalRecord, error) {
	return s.query(ctx, `
		SELECT global_id, source_id, item_ref, content_type, content_hash,
			content_length, storage_path, fields, created_at
		FROM records WHERE source_id = ? ORDER BY created_at, global_id
	`, sourceID)
}

// Count returns the number of records.
func (s *recordStore) Count(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// query runs a SELECT over the records table and scans all rows.
func (s *recordStore) query(ctx context.Context, sqlText string, args ...any) ([]domain.CanonicalRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.CanonicalRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one record row.
func scanRecord(row scanner) (*domain.CanonicalRecord, error) {
	var record domain.CanonicalRecord
	var fieldsJSON string
	var createdAt sql.NullTime

	if err := row.Scan(&record.GlobalID, &record.SourceID, &record.ItemRef,
		&record.ContentType, &record.ContentHash, &record.ContentLength,
		&record.StoragePath, &fieldsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &record.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields: %w", err)
	}
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}
	return &record, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ==================== Collect State Store ====================

// collectStateStore implements driven.CollectStateStore.
type collectStateStore struct {
	store *Store
}

var _ driven.CollectStateStore = (*collectStateStore)(nil)

// Get retrieves the collect state for a source.
func (s *collectStateStore) Get(ctx context.Context, sourceID string) (*domain.CollectState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, cursor, last_run FROM collect_state WHERE source_id = ?
	`, sourceID)

	var state domain.CollectState
	var lastRun sql.NullTime
	if err := row.Scan(&state.SourceID, &state.Cursor, &lastRun); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collect state: %w", err)
	}
	if lastRun.Valid {
		state.LastRun = lastRun.Time
	}
	return &state, nil
}

// Save stores or updates the collect state for a source.
func (s *collectStateStore) Save(ctx context.Context, state domain.CollectState) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collect_state (source_id, cursor, last_run)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			cursor = excluded.cursor,
			last_run = excluded.last_run
	`, state.SourceID, state.Cursor, state.LastRun)

	if err != nil {
		return fmt.Errorf("saving collect state: %w", err)
	}
	return nil
}
