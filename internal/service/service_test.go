package service

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/models"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
)

// newTestDB opens a migrated SQLite database in a per-test temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProfile(t *testing.T, db *sql.DB, p *models.DriverProfile) {
	t.Helper()

	repo := repository.NewProfileRepository(db)
	err := database.Transaction(db, func(tx *sql.Tx) error {
		return repo.UpsertTx(tx, p)
	})
	require.NoError(t, err)
}
