package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/llehouerou/shelf/internal/tags"
	"github.com/llehouerou/shelf/internal/task"
)

// Task is a background catalog job. Its items are applied changes whose
// notifications go out on the loop.
type Task = task.Task[*Pending]

func (c *Catalog) newTask(ctx context.Context, name string, produce task.ProduceFunc[*Pending]) *Task {
	t := task.New(c.loop, name, produce, c.emit, c.log)
	t.Start(ctx)
	return t
}

// ScanFolders walks folders and adds every music file not yet indexed.
// The folders are not added to the watched set.
func (c *Catalog) ScanFolders(ctx context.Context, folders []string) *Task {
	folders = slices.Clone(folders)
	return c.newTask(ctx, "scan", func(ctx context.Context, sink task.Sink[*Pending]) error {
		return c.walkFolders(ctx, sink, folders)
	})
}

// CheckChanges compares every indexed song with its file, removing songs
// whose file is gone and re-reading those modified since, then walks the
// watched folders for new files.
func (c *Catalog) CheckChanges(ctx context.Context) *Task {
	return c.newTask(ctx, "check-changes", c.checkChanges)
}

func (c *Catalog) walkFolders(ctx context.Context, sink task.Sink[*Pending], folders []string) error {
	for _, dir := range folders {
		if err := c.walkFolder(ctx, sink, dir); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) walkFolder(ctx context.Context, sink task.Sink[*Pending], root string) error {
	info, err := os.Stat(root)
	if err != nil {
		c.log.Warn("skipping folder", "folder", root, "error", err)
		return nil
	}
	if !info.IsDir() {
		c.log.Warn("skipping folder", "folder", root, "error", "not a directory")
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if sink.Canceled() {
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			c.log.Debug("walk error", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() || !tags.IsMusicFile(path) || c.Song(path) != nil {
			return nil
		}

		md, err := c.reader.Read(path)
		if err != nil {
			c.log.Debug("skipping file", "path", path, "error", err)
			return nil
		}
		p, err := c.startAddSong(NewSong(path, md))
		if err != nil {
			sink.Report(fmt.Errorf("add %s: %w", path, err))
			return nil
		}
		if p != nil {
			sink.Push(p)
		}
		return nil
	})
}

func (c *Catalog) checkChanges(ctx context.Context, sink task.Sink[*Pending]) error {
	songs := c.Songs()

	for _, s := range songs {
		if sink.Canceled() {
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := c.checkSong(s)
		if errors.Is(err, ErrStaleEntity) {
			continue
		}
		if p != nil {
			sink.Push(p)
		}
		if err != nil {
			sink.Report(err)
		}
	}

	return c.walkFolders(ctx, sink, c.WatchedFolders())
}

func (c *Catalog) checkSong(s *Song) (*Pending, error) {
	info, err := os.Stat(s.Filename())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c.startRemoveSong(s)
	case err != nil:
		c.log.Debug("cannot stat song", "filename", s.Filename(), "error", err)
		return nil, nil
	case info.ModTime().Unix() <= s.MTime():
		return nil, nil
	}

	md, err := c.reader.Read(s.Filename())
	if err != nil {
		c.log.Debug("song no longer readable", "filename", s.Filename(), "error", err)
		return c.startRemoveSong(s)
	}
	return c.startSyncSong(s, md)
}
