package app

import (
	"context"
	"errors"
	"os"

	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/library"
	"github.com/llehouerou/shelf/internal/task"
	"github.com/llehouerou/shelf/internal/watch"
)

// Serve keeps the catalog in sync until ctx is done: it checks for changes
// once, follows filesystem events when watching is enabled and applies
// config file edits live.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var checking *library.Task
	check := func() {
		if checking != nil && checking.State() != task.Done {
			checking.Cancel()
		}
		checking = a.Catalog.CheckChanges(ctx)
	}
	check()

	if a.Config.Watch.Enabled {
		w, err := watch.New(func() { a.Loop.Post(check) }, a.Config.Debounce(), a.Log)
		if err != nil {
			return errmsg.Error(errmsg.OpFolderWatch, err)
		}
		w.SetFolders(a.Catalog.WatchedFolders())
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Log.Error("watcher stopped", "error", err)
			}
		}()

		unsubscribe := a.Catalog.Subscribe(func(e library.Event) {
			if e.Type == library.WatchedFoldersChanged {
				w.SetFolders(a.Catalog.WatchedFolders())
			}
		})
		defer unsubscribe()
	}

	if path := a.Config.Path(); path != "" {
		if _, err := os.Stat(path); err == nil {
			stop, err := config.Watch(path, func(cfg *config.Config, err error) {
				if err != nil {
					a.Log.Warn(errmsg.Format(errmsg.OpConfigReload, err), "path", path)
					return
				}
				a.Loop.Post(func() { a.apply(ctx, cfg) })
			})
			if err != nil {
				a.Log.Warn("config not watched", "path", path, "error", err)
			} else {
				defer stop()
			}
		}
	}

	return a.Loop.Run(ctx)
}

// apply takes over the live settings of a reloaded configuration.
func (a *App) apply(ctx context.Context, cfg *config.Config) {
	a.Catalog.SetOnlyCompleteAlbums(cfg.OnlyCompleteAlbums)
	a.Catalog.SetWatchedFolders(ctx, cfg.WatchedFolders)
	a.Config.WatchedFolders = cfg.WatchedFolders
	a.Config.OnlyCompleteAlbums = cfg.OnlyCompleteAlbums
}
