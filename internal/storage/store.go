// Package storage is the per-user file store. Every operation is confined
// to the owning user's directory under the data root.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nasmini/backend/internal/common"
)

// MaxUploadChunk bounds a single read from an upload stream. Each chunk is
// written to disk before the next is requested.
const MaxUploadChunk = 32 * 1024 * 1024

// FileInfo describes one stored file.
type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
}

type Store struct {
	root    string
	allowed map[string]bool
}

func NewStore(root string, allowedExts []string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		if ext != "" {
			allowed[strings.ToLower(ext)] = true
		}
	}
	return &Store{root: root, allowed: allowed}, nil
}

// EnsureUserDir creates the user's directory if absent.
func (s *Store) EnsureUserDir(user string) error {
	dir, err := s.userDir(user)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// List returns the user's files sorted by name.
func (s *Store) List(user string) ([]FileInfo, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:  e.Name(),
			Size:  info.Size(),
			Mtime: info.ModTime().Unix(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// WriteStream consumes src in bounded chunks, writing each chunk to a temp
// file before requesting the next, and reports cumulative bytes after every
// write. The file appears under its final name only on success; a canceled
// or failed transfer leaves nothing behind.
func (s *Store) WriteStream(ctx context.Context, user, name string, src io.Reader, progress func(written int64)) (int64, error) {
	if err := s.CheckName(name); err != nil {
		return 0, err
	}
	if err := s.CheckExt(name); err != nil {
		return 0, err
	}
	dir, err := s.userDir(user)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".part")
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	var total int64
	buf := make([]byte, MaxUploadChunk)
	for {
		if ctx.Err() != nil {
			dst.Close()
			os.Remove(tmp)
			return total, ctx.Err()
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				os.Remove(tmp)
				return total, werr
			}
			total += int64(n)
			if progress != nil {
				progress(total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			dst.Close()
			os.Remove(tmp)
			return total, rerr
		}
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return total, err
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		os.Remove(tmp)
		return total, err
	}
	return total, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(user, name string) (*os.File, os.FileInfo, error) {
	path, err := s.FilePath(user, name)
	if err != nil {
		return nil, nil, err
	}
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return nil, nil, common.ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, common.ErrNotFound
	}
	return f, st, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *Store) Delete(user, name string) error {
	path, err := s.FilePath(user, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FilePath resolves a stored file's absolute path after name validation.
func (s *Store) FilePath(user, name string) (string, error) {
	if err := s.CheckName(name); err != nil {
		return "", err
	}
	dir, err := s.userDir(user)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// CheckName rejects names that could escape the user's directory.
func (s *Store) CheckName(name string) error {
	if name == "" || name == "." || name == ".." {
		return common.ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return common.ErrInvalidName
	}
	if name != filepath.Base(filepath.Clean(name)) {
		return common.ErrInvalidName
	}
	return nil
}

// CheckExt rejects extensions outside the allow-list.
func (s *Store) CheckExt(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !s.allowed[ext] {
		return common.ErrUnsupportedType
	}
	return nil
}

func (s *Store) userDir(user string) (string, error) {
	if err := s.CheckName(user); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, user)

	// the joined path must stay under root
	rootClean := filepath.Clean(s.root)
	if dir != rootClean && !strings.HasPrefix(dir, rootClean+string(filepath.Separator)) {
		return "", common.ErrInvalidName
	}
	return dir, nil
}
