package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/hitoshi/taskapi/internal/database"
	"github.com/stretchr/testify/require"
)

// setupTestDB は一時ディレクトリにSQLiteデータベースを作成し、
// マイグレーションを適用した接続を返す。
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	src, err := database.ParseURL("sqlite3://" + filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(src))

	db, err := database.Open(src, 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}
