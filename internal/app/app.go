// Package app wires configuration, stores and the catalog together for the
// command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/covers"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/library"
	"github.com/llehouerou/shelf/internal/loop"
	"github.com/llehouerou/shelf/internal/playlist"
	"github.com/llehouerou/shelf/internal/store"
	"github.com/llehouerou/shelf/internal/tags"
)

const (
	appName          = "shelf"
	songsFileName    = "songs.db"
	coversFileName   = "covers.db"
	playlistFileName = "playlist.m3u"
)

// Options configures Open.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Ephemeral keeps every store in memory and never writes the config.
	Ephemeral bool
	// Reader overrides the tag reader, for tests.
	Reader library.MetadataReader
}

// App is an opened catalog with its collaborators.
type App struct {
	Config  *config.Config
	Catalog *library.Catalog
	Covers  *covers.DB
	Loop    *loop.Loop
	Log     *slog.Logger

	songs      store.Store
	coverStore store.Store
}

// Open opens the stores and loads the catalog. Failing to open a store is
// the only fatal error.
func Open(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: no configuration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Locale != "" {
		if err := library.SetSortLocale(cfg.Locale); err != nil {
			return nil, err
		}
	}

	songs, coverStore, err := openStores(cfg, opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Loop:       loop.New(),
		Log:        logger,
		songs:      songs,
		coverStore: coverStore,
	}

	a.Covers = covers.New(coverStore, logger)
	if err := a.Covers.Load(); err != nil {
		a.Close() //nolint:errcheck // reporting the load failure
		return nil, fmt.Errorf("load covers: %w", err)
	}

	reader := opts.Reader
	if reader == nil {
		reader = tags.FileReader{}
	}
	var saver library.FolderSaver
	if !opts.Ephemeral {
		saver = config.NewFolderWriter(cfg.Path())
	}

	a.Catalog = library.New(library.Options{
		Store:              songs,
		Reader:             reader,
		Loop:               a.Loop,
		Covers:             a.Covers,
		FolderSaver:        saver,
		Logger:             logger,
		WatchedFolders:     cfg.WatchedFolders,
		OnlyCompleteAlbums: cfg.OnlyCompleteAlbums,
	})
	if err := a.Catalog.Load(); err != nil {
		logger.Error(errmsg.Format(errmsg.OpCatalogLoad, err))
	}
	return a, nil
}

func openStores(cfg *config.Config, ephemeral bool) (songs, coverStore store.Store, err error) {
	if ephemeral {
		return store.NewMemory(), store.NewMemory(), nil
	}

	songsPath, err := dataPath(cfg.DataDir, songsFileName)
	if err != nil {
		return nil, nil, err
	}
	coversPath, err := dataPath(cfg.DataDir, coversFileName)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.OpenSQLite(songsPath, library.SongVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("open song store: %w", err)
	}
	c, err := store.OpenSQLite(coversPath, covers.Version)
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("open cover store: %w", err)
	}
	return s, c, nil
}

// dataPath places name in dir, or in the XDG data home when dir is empty.
func dataPath(dir, name string) (string, error) {
	if dir != "" {
		return filepath.Join(dir, name), nil
	}
	return xdg.DataFile(filepath.Join(appName, name))
}

// PlaylistPath is where the playlist is saved.
func (a *App) PlaylistPath() (string, error) {
	if a.Config.PlaylistFile != "" {
		return a.Config.PlaylistFile, nil
	}
	return dataPath(a.Config.DataDir, playlistFileName)
}

// LoadPlaylist reads the saved playlist against the catalog.
func (a *App) LoadPlaylist() (*playlist.Playlist, error) {
	path, err := a.PlaylistPath()
	if err != nil {
		return nil, err
	}
	p := playlist.New(a.Catalog)
	if err := p.LoadFile(path, a.Catalog); err != nil {
		return p, err
	}
	return p, nil
}

// RunTask drives the loop until t and everything it posted is handled.
func (a *App) RunTask(ctx context.Context, t *library.Task) error {
	if err := a.Loop.RunUntilIdle(ctx); err != nil {
		t.Cancel()
		return err
	}
	return t.Err()
}

// Drain delivers every pending notification.
func (a *App) Drain(ctx context.Context) error {
	return a.Loop.RunUntilIdle(ctx)
}

// Close releases the stores.
func (a *App) Close() error {
	var errs []error
	if a.songs != nil {
		errs = append(errs, a.songs.Close())
	}
	if a.coverStore != nil {
		errs = append(errs, a.coverStore.Close())
	}
	return errors.Join(errs...)
}
