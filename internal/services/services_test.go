package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feedflow/internal/dbtest"
	"feedflow/internal/metrics"
	"feedflow/internal/models"
	"feedflow/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	*Services
	db      *gorm.DB
	clock   *dbtest.Clock
	fs      afero.Fs
	files   *storage.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, clock := dbtest.New(t)
	fs := afero.NewBasePathFs(afero.NewMemMapFs(), "/")
	files := storage.NewStore(fs)
	m := metrics.New(prometheus.NewRegistry())
	svc := New(gdb, files, zaptest.NewLogger(t), Options{
		BcryptCost: bcrypt.MinCost,
		Metrics:    m,
	})
	return &fixture{Services: svc, db: gdb, clock: clock, fs: fs, files: files, metrics: m}
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.Users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, content string) *models.Post {
	t.Helper()
	p, err := f.Posts.Create(context.Background(), author.ID, content)
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// storedFiles lists every regular file in the store, temp files included.
func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	var paths []string
	err := afero.Walk(f.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			paths = append(paths, strings.TrimPrefix(filepath.ToSlash(p), "/"))
		}
		return nil
	})
	require.NoError(t, err)
	return paths
}

func upload(name, body string) storage.Upload {
	return storage.Upload{Filename: name, Body: bytes.NewBufferString(body)}
}

// failingReader errors after handing out some bytes, like a dropped client.
type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errUploadAborted
	}
	r.sent = true
	return copy(p, "partial"), nil
}

var errUploadAborted = errors.New("client went away")

// failDeletesOn makes every DELETE against table fail inside the test database.
func (f *fixture) failDeletesOn(t *testing.T, table string) {
	t.Helper()
	err := f.db.Callback().Delete().Before("gorm:delete").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)
}

var errInjected = errors.New("injected failure")
