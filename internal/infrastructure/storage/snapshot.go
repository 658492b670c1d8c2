package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/ports"
)

const snapshotTable = "records"

// SnapshotWriter dumps a view into a standalone SQLite file.
type SnapshotWriter struct {
	logger *slog.Logger
}

var _ ports.SnapshotExporter = (*SnapshotWriter)(nil)

// NewSnapshotWriter wires a writer.
func NewSnapshotWriter(logger *slog.Logger) *SnapshotWriter {
	return &SnapshotWriter{logger: logger}
}

// Write replaces the records table at path with the view. Every column is
// TEXT; missing cells are stored as NULL.
func (w *SnapshotWriter) Write(ctx context.Context, path string, view domain.View) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	columns := view.Columns()
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(snapshotTable)); err != nil {
		return fmt.Errorf("drop snapshot table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(quoted)); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}

	for i, row := range view.Rows() {
		values := make([]any, len(columns))
		for j, col := range columns {
			if text, ok := row.Get(col).Text(); ok {
				values[j] = text
			}
		}

		_, err := sq.Insert(quoteIdent(snapshotTable)).
			Columns(quoted...).
			Values(values...).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	if w.logger != nil {
		w.logger.Info("snapshot written", "path", path, "rows", view.Len(), "columns", len(columns))
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure snapshot %s: %w", path, err)
	}
	return db, nil
}

func createTableSQL(quoted []string) string {
	defs := make([]string, len(quoted))
	for i, col := range quoted {
		defs[i] = col + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(snapshotTable), strings.Join(defs, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
