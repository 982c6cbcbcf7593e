// Package history persists completed exports in a DuckDB file.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/structdraw/backend/internal/models"
)

// DefaultFileName is the database file created inside the history directory.
const DefaultFileName = "exports.duckdb"

// Store records exports and lists the most recent ones.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewStore opens (or creates) the export history database in dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return NewStoreAtPath(filepath.Join(dir, DefaultFileName))
}

// NewStoreAtPath opens the export history database at a specific path.
func NewStoreAtPath(dbPath string) (*Store, error) {
	fmt.Printf("[History] Opening database at: %s\n", dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=1",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[History] Pragma error: %v\n", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS exports (
			id           VARCHAR PRIMARY KEY,
			workspace_id VARCHAR,
			file_name    VARCHAR NOT NULL,
			format       VARCHAR NOT NULL,
			row_count    INTEGER NOT NULL,
			byte_size    BIGINT NOT NULL,
			created_at   BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create exports table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Record implements export.HistoryRecorder.
func (s *Store) Record(ctx context.Context, entry models.ExportEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, workspace_id, file_name, format, row_count, byte_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.WorkspaceID, entry.FileName, string(entry.Format),
		entry.RowCount, entry.ByteSize, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record export %s: %w", entry.FileName, err)
	}
	return nil
}

// Recent returns up to limit exports, newest first. A non-positive limit means 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.ExportEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, file_name, format, row_count, byte_size, created_at
		FROM exports
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExportEntry, 0, limit)
	for rows.Next() {
		var (
			e           models.ExportEntry
			workspaceID sql.NullString
			format      string
		)
		if err := rows.Scan(&e.ID, &workspaceID, &e.FileName, &format, &e.RowCount, &e.ByteSize, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.WorkspaceID = workspaceID.String
		e.Format = models.ExportFormat(format)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded exports.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exports").Scan(&n)
	return n, err
}

// Close closes the database. The file is kept.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
