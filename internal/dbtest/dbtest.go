// Package dbtest opens throwaway sqlite databases for store tests.
package dbtest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"feedflow/internal/config"
	"feedflow/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// Clock is a fake time source that moves forward one second every time it is read.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// Advance jumps the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// New returns a migrated in-memory database and the clock driving its timestamps.
// The database is closed when the test finishes.
func New(t testing.TB) (*gorm.DB, *Clock) {
	t.Helper()

	clock := NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		// a named shared-cache database survives for as long as one connection is open
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "error",
	}

	gdb, err := db.Open(cfg, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), db.WithNowFunc(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb, clock
}
