package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// isUnder reports whether path equals dir or lies inside it.
func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// mergeFolder adds folder to a prefix-minimal set. A folder already covered
// is a no-op; watched descendants of folder are replaced by it.
func mergeFolder(set []string, folder string) ([]string, bool) {
	folder = filepath.Clean(folder)

	out := make([]string, 0, len(set)+1)
	for _, cur := range set {
		if isUnder(folder, cur) {
			return set, false
		}
		if isUnder(cur, folder) {
			continue
		}
		out = append(out, cur)
	}
	return append(out, folder), true
}

// minimalFolders reduces folders to a prefix-minimal set, keeping order.
func minimalFolders(folders []string) []string {
	var set []string
	for _, f := range folders {
		if f == "" {
			continue
		}
		set, _ = mergeFolder(set, f)
	}
	return set
}

// newFolders returns the entries of next that are not in prev.
func newFolders(prev, next []string) []string {
	var added []string
	for _, f := range next {
		if !slices.Contains(prev, f) {
			added = append(added, f)
		}
	}
	return added
}

// WatchedFolders returns a copy of the watched set.
func (c *Catalog) WatchedFolders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.folders)
}

// AddWatchedFolders merges folders into the watched set, persists it and
// walks the given folders. A save failure is returned alongside the
// running task.
func (c *Catalog) AddWatchedFolders(ctx context.Context, folders []string) (*Task, error) {
	c.mu.Lock()
	changed := false
	var walk []string
	for _, f := range folders {
		if f == "" {
			continue
		}
		f = filepath.Clean(f)
		walk = append(walk, f)
		var ok bool
		c.folders, ok = mergeFolder(c.folders, f)
		changed = changed || ok
	}
	set := slices.Clone(c.folders)
	c.mu.Unlock()

	var err error
	if changed {
		err = c.saveFolders(set)
		c.postFoldersChanged()
	}
	return c.ScanFolders(ctx, walk), err
}

// SetWatchedFolders replaces the watched set, typically after the
// configuration changed on disk, and walks the folders that are new.
// It returns nil when the set did not change.
func (c *Catalog) SetWatchedFolders(ctx context.Context, folders []string) *Task {
	next := minimalFolders(cleanFolders(folders))

	c.mu.Lock()
	prev := c.folders
	if slices.Equal(prev, next) {
		c.mu.Unlock()
		return nil
	}
	c.folders = next
	c.mu.Unlock()

	c.postFoldersChanged()
	return c.ScanFolders(ctx, newFolders(prev, next))
}

// RemoveFolder removes every song below folder and drops folder, and any
// watched folder inside it, from the watched set.
func (c *Catalog) RemoveFolder(folder string) error {
	folder = filepath.Clean(folder)

	var errs []error
	for _, s := range c.Songs() {
		if s.Filename() == folder || !isUnder(s.Filename(), folder) {
			continue
		}
		if err := c.RemoveSong(s); err != nil && !errors.Is(err, ErrStaleEntity) {
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	before := len(c.folders)
	c.folders = slices.DeleteFunc(c.folders, func(f string) bool {
		return isUnder(f, folder)
	})
	changed := len(c.folders) != before
	set := slices.Clone(c.folders)
	c.mu.Unlock()

	if changed {
		if err := c.saveFolders(set); err != nil {
			errs = append(errs, err)
		}
		c.postFoldersChanged()
	}
	return errors.Join(errs...)
}

func (c *Catalog) saveFolders(set []string) error {
	if c.saver == nil {
		return nil
	}
	if err := c.saver.SaveWatchedFolders(set); err != nil {
		return fmt.Errorf("save watched folders: %w", err)
	}
	return nil
}

func (c *Catalog) postFoldersChanged() {
	c.loop.Post(func() {
		c.dispatch(Event{Type: WatchedFoldersChanged})
	})
}

func cleanFolders(folders []string) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		if f != "" {
			out = append(out, filepath.Clean(f))
		}
	}
	return out
}
