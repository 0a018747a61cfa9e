// Package dbtest opens throwaway databases for tests
package dbtest

import (
	"testing"

	"github.com/zllovesuki/rmc-fees/db"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns an empty in-memory SQLite database and a logger bound to t
func New(t testing.TB) (*gorm.DB, *zap.Logger) {
	logger := zaptest.NewLogger(t)

	gdb, err := db.Open(sqlite.Open(":memory:"), logger)
	require.NoError(t, err)

	// every connection of the pool would get its own in-memory database
	pool, err := gdb.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)

	t.Cleanup(func() {
		pool.Close()
	})

	return gdb, logger
}
