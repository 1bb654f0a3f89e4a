package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

type Category string

const (
	CategoryAvatars Category = "avatars"
	CategoryMedia   Category = "media"
)

// Upload is a file handed over by the request layer.
type Upload struct {
	Filename string // original client file name, only its extension is kept
	Body     io.Reader
}

// UploadPath 生成存储路径: {category}/users/{ownerID}/{uuid}{ext}
// 文件名随机生成避免冲突，保留原始扩展名
func UploadPath(category Category, ownerID uint, filename string) string {
	return fmt.Sprintf("%s/users/%d/%s%s", category, ownerID, uuid.NewString(), filepath.Ext(filename))
}

// Store keeps uploaded files on an afero filesystem and hands out references
// (paths relative to the filesystem root).
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewLocalStore roots the store at dir on the OS filesystem.
func NewLocalStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// Staged is a file written to its final location whose owning record is not
// committed yet. Release removes it unless Keep was called.
type Staged struct {
	Path  string
	store *Store
	done  bool
}

// Stage writes the upload under a fresh UploadPath. The bytes go to a temp file
// first and are renamed into place, so a partial upload never appears at Path.
// The directory is synced after the rename so the entry survives a crash.
func (s *Store) Stage(category Category, ownerID uint, up Upload) (*Staged, error) {
	if up.Body == nil {
		return nil, errors.New("upload has no body")
	}

	p := UploadPath(category, ownerID, up.Filename)
	dir := path.Dir(p)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, up.Body); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to close upload: %w", err)
	}
	if err := s.fs.Rename(tmpName, p); err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to move upload into place: %w", err)
	}
	if err := s.syncDir(dir); err != nil {
		_ = s.fs.Remove(p)
		return nil, fmt.Errorf("failed to sync upload dir: %w", err)
	}

	return &Staged{Path: p, store: s}, nil
}

// syncDir flushes the directory entry written by Rename.
func (s *Store) syncDir(dir string) error {
	d, err := s.fs.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Keep marks the file as owned by a committed record. Safe to call on nil.
func (st *Staged) Keep() {
	if st != nil {
		st.done = true
	}
}

// Release discards the file unless Keep was called. Safe to call on nil and more than once.
func (st *Staged) Release() error {
	if st == nil || st.done {
		return nil
	}
	st.done = true
	return st.store.Remove(st.Path)
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(p string) error {
	if p == "" {
		return nil
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

func (s *Store) Exists(p string) bool {
	ok, err := afero.Exists(s.fs, p)
	return err == nil && ok
}

// Open returns a reader for a stored file.
func (s *Store) Open(p string) (afero.File, error) {
	return s.fs.Open(p)
}
