package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nasmini/backend/internal/common"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), []string{".zip", ".rar", ".apk"})
	require.NoError(t, err)
	return s
}

// chunkReader yields at most chunk bytes per Read so multi-chunk paths are
// exercised without multi-megabyte fixtures.
type chunkReader struct {
	data  []byte
	pos   int
	chunk int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

func TestWriteStreamAndList(t *testing.T) {
	s := newTestStore(t)
	payload := bytes.Repeat([]byte("x"), 1000)

	n, err := s.WriteStream(context.Background(), "alice", "a.zip", bytes.NewReader(payload), nil)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)

	files, err := s.List("alice")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "a.zip", files[0].Name)
	require.Equal(t, int64(len(payload)), files[0].Size)
	require.NotZero(t, files[0].Mtime)
}

func TestWriteStream_ProgressMonotonic(t *testing.T) {
	s := newTestStore(t)
	payload := bytes.Repeat([]byte("y"), 1000)
	src := &chunkReader{data: payload, chunk: 100}

	var reports []int64
	_, err := s.WriteStream(context.Background(), "alice", "b.zip", src, func(written int64) {
		reports = append(reports, written)
	})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		require.Greater(t, reports[i], reports[i-1])
	}
	require.Equal(t, int64(len(payload)), reports[len(reports)-1])
}

func TestWriteStream_RejectsUnsupportedType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.WriteStream(context.Background(), "alice", "a.txt", strings.NewReader("hi"), nil)
	require.ErrorIs(t, err, common.ErrUnsupportedType)

	files, err := s.List("alice")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestWriteStream_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"../secret.zip", "..", "a/b.zip", "a\\b.zip", ""} {
		_, err := s.WriteStream(context.Background(), "alice", name, strings.NewReader("hi"), nil)
		require.ErrorIs(t, err, common.ErrInvalidName, "name %q", name)
	}

	// nothing may exist outside the data root
	parent := filepath.Dir(s.root)
	ents, err := os.ReadDir(parent)
	require.NoError(t, err)
	for _, e := range ents {
		require.Equal(t, filepath.Base(s.root), e.Name())
	}
}

func TestWriteStream_CancelRemovesPartial(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.WriteStream(ctx, "alice", "c.zip", strings.NewReader("data"), nil)
	require.ErrorIs(t, err, context.Canceled)

	dir := filepath.Join(s.root, "alice")
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, ents)
}

func TestOpenAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.WriteStream(ctx, "alice", "d.zip", strings.NewReader("content"), nil)
	require.NoError(t, err)

	f, st, err := s.Open("alice", "d.zip")
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, int64(7), st.Size())
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	require.NoError(t, s.Delete("alice", "d.zip"))
	_, _, err = s.Open("alice", "d.zip")
	require.ErrorIs(t, err, common.ErrNotFound)

	// deleting again is fine
	require.NoError(t, s.Delete("alice", "d.zip"))
}

func TestOpen_MissingFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureUserDir("alice"))

	_, _, err := s.Open("alice", "nope.zip")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestFilesAreIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.WriteStream(ctx, "alice", "a.zip", strings.NewReader("a"), nil)
	require.NoError(t, err)

	files, err := s.List("bob")
	require.NoError(t, err)
	require.Empty(t, files)

	_, _, err = s.Open("bob", "a.zip")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserDir_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, user := range []string{"..", "../x", "a/b", ""} {
		err := s.EnsureUserDir(user)
		require.ErrorIs(t, err, common.ErrInvalidName, "user %q", user)
	}
}
