package db_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
	"github.com/keerthik-19/summer-camp-registration/internal/db"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	gdb, err := db.Open(config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "camp.db"),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

// TestOpen_WALMode verifies that the DSN parameters enable WAL journal mode.
func TestOpen_WALMode(t *testing.T) {
	sqlDB := openTemp(t)

	var mode string
	require.NoError(t, sqlDB.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

// TestOpen_CreatesIndexes verifies the ticket, child/program and listing
// indexes exist after migration.
func TestOpen_CreatesIndexes(t *testing.T) {
	sqlDB := openTemp(t)

	found := indexes(t, sqlDB, "registrations")
	require.Contains(t, found, "idx_reg_created")
	require.Contains(t, found, "idx_child_program")
	require.True(t, found["idx_child_program"], "child/program index must be unique")
	require.True(t, found["idx_registrations_registration_id"], "ticket index must be unique")
}

// TestOpen_Idempotent re-runs migrations against an existing file.
func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camp.db")
	cfg := config.DBConfig{Driver: "sqlite", SQLitePath: path}

	first, err := db.Open(cfg)
	require.NoError(t, err)
	s1, _ := first.DB()
	require.NoError(t, s1.Close())

	second, err := db.Open(cfg)
	require.NoError(t, err)
	s2, _ := second.DB()
	require.NoError(t, s2.Close())
}

func TestMySQLDSN(t *testing.T) {
	dsn := db.MySQLDSN(config.DBConfig{
		User: "camp", Pass: "pw", Host: "db", Port: "3306", Name: "camp",
	})
	require.True(t, strings.HasPrefix(dsn, "camp:pw@tcp(db:3306)/camp?"), dsn)
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "charset=utf8mb4")
}

// indexes maps index name -> unique flag.
func indexes(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	require.NoError(t, err)
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		require.NoError(t, rows.Scan(&seq, &name, &unique, &origin, &partial))
		out[name] = unique
	}
	require.NoError(t, rows.Err())
	return out
}

// TestNewLogger_SkipsRecordNotFound keeps failed lookups (and the ticket in
// their SQL) out of the log while real errors still show up.
func TestNewLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := db.NewLogger(&buf)
	query := func() (string, int64) {
		return "SELECT * FROM registrations WHERE registration_id = 'BOF2025-123456789'", 0
	}

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	require.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
	require.Contains(t, buf.String(), "disk I/O error")
}
