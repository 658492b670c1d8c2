package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OAIHealthCheck/internal/domain"
)

func TestSnapshotWriterWritesRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.db")
	view := domain.NewView(
		[]string{"identifier", "title", "dc_identifier"},
		[]domain.Row{
			domain.NewRow(map[string]string{"identifier": "oai:x:1", "title": "It's quoted", "dc_identifier": "hdl:1"}),
			domain.NewRow(map[string]string{"identifier": "oai:x:2"}),
		},
	)

	w := NewSnapshotWriter(nil)
	require.NoError(t, w.Write(context.Background(), path, view))
	// Writing again replaces the table instead of appending.
	require.NoError(t, w.Write(context.Background(), path, view))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "records"`).Scan(&count))
	assert.Equal(t, 2, count)

	var title sql.NullString
	require.NoError(t, db.QueryRow(`SELECT "title" FROM "records" WHERE "identifier" = ?`, "oai:x:1").Scan(&title))
	assert.Equal(t, "It's quoted", title.String)

	require.NoError(t, db.QueryRow(`SELECT "title" FROM "records" WHERE "identifier" = ?`, "oai:x:2").Scan(&title))
	assert.False(t, title.Valid, "missing cell is NULL")
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
