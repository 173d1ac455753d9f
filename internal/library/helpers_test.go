package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/llehouerou/shelf/internal/covers"
	"github.com/llehouerou/shelf/internal/loop"
	"github.com/llehouerou/shelf/internal/store"
	"github.com/llehouerou/shelf/internal/tags"
)

var errUnreadable = errors.New("unreadable")

// fakeReader serves metadata from a map. When the path exists on disk the
// returned MTime is the file's.
type fakeReader struct {
	mu    sync.Mutex
	files map[string]tags.Metadata
}

func newFakeReader() *fakeReader {
	return &fakeReader{files: make(map[string]tags.Metadata)}
}

func (r *fakeReader) set(path string, md tags.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = md
}

func (r *fakeReader) forget(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, path)
}

func (r *fakeReader) Read(path string) (*tags.Metadata, error) {
	r.mu.Lock()
	md, ok := r.files[path]
	r.mu.Unlock()
	if !ok {
		return nil, errUnreadable
	}
	md.Path = path
	if info, err := os.Stat(path); err == nil {
		md.MTime = info.ModTime().Unix()
	}
	return &md, nil
}

type fakeSaver struct {
	saved [][]string
}

func (s *fakeSaver) SaveWatchedFolders(folders []string) error {
	s.saved = append(s.saved, folders)
	return nil
}

// failingStore rejects every write.
type failingStore struct {
	*store.Memory
}

func (failingStore) Store(string, []byte, bool) error {
	return errors.New("disk full")
}

// recorder flattens events to "type subject" strings.
type recorder struct {
	events []string
}

func (r *recorder) listen(e Event) {
	switch {
	case e.Song != nil:
		r.events = append(r.events, e.Type.String()+" "+e.Song.Filename())
	case e.Album != nil:
		r.events = append(r.events, e.Type.String()+" "+e.Album.Key())
	default:
		r.events = append(r.events, e.Type.String())
	}
}

func (r *recorder) take() []string {
	out := r.events
	r.events = nil
	return out
}

type testEnv struct {
	cat    *Catalog
	loop   *loop.Loop
	reader *fakeReader
	store  *store.Memory
	saver  *fakeSaver
	rec    *recorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		loop:   loop.New(),
		reader: newFakeReader(),
		store:  store.NewMemory(),
		saver:  &fakeSaver{},
		rec:    &recorder{},
	}
	opts := Options{
		Store:              env.store,
		Reader:             env.reader,
		Loop:               env.loop,
		Covers:             covers.New(store.NewMemory(), discardLogger()),
		FolderSaver:        env.saver,
		Logger:             discardLogger(),
		OnlyCompleteAlbums: true,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	env.cat = New(opts)
	env.cat.Subscribe(env.rec.listen)
	return env
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.loop.RunUntilIdle(ctx))
}

func track(album string, n int, artists ...string) tags.Metadata {
	return tags.Metadata{
		Title:       album + " track",
		Artists:     artists,
		Album:       album,
		TrackNumber: n,
		Duration:    3 * time.Minute,
	}
}

func newSong(filename string, md tags.Metadata) *Song {
	return NewSong(filename, &md)
}

// writeFiles creates empty files under dir and returns their paths.
func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		paths[i] = p
	}
	return paths
}
