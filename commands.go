package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/shelf/internal/app"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/library"
)

// changeCounter tallies catalog events while a command runs.
type changeCounter struct {
	added, changed, removed int
	albums                  int
}

func (c *changeCounter) listen(e library.Event) {
	switch e.Type {
	case library.SongAdded:
		c.added++
	case library.SongChanged:
		c.changed++
	case library.SongRemoved:
		c.removed++
	case library.AlbumAdded:
		c.albums++
	}
}

func (c *changeCounter) summary(elapsed time.Duration) string {
	return fmt.Sprintf("%s added, %s changed, %s removed, %s new albums in %s",
		humanize.Comma(int64(c.added)),
		humanize.Comma(int64(c.changed)),
		humanize.Comma(int64(c.removed)),
		humanize.Comma(int64(c.albums)),
		elapsed.Round(time.Millisecond))
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [folder...]",
		Short: "Add folders to the watched set and scan them",
		Long:  "Without arguments, rescans every watched folder for new files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				var counter changeCounter
				defer a.Catalog.Subscribe(counter.listen)()
				start := time.Now()

				var t *library.Task
				if len(args) > 0 {
					var err error
					t, err = a.Catalog.AddWatchedFolders(cmd.Context(), args)
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), errmsg.Format(errmsg.OpFolderAdd, err))
					}
				} else {
					t = a.Catalog.ScanFolders(cmd.Context(), a.Catalog.WatchedFolders())
				}

				if err := a.RunTask(cmd.Context(), t); err != nil {
					return errmsg.Error(errmsg.OpFolderScan, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), counter.summary(time.Since(start)))
				return nil
			})
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Sync the catalog with the files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				var counter changeCounter
				defer a.Catalog.Subscribe(counter.listen)()
				start := time.Now()

				t := a.Catalog.CheckChanges(cmd.Context())
				if err := a.RunTask(cmd.Context(), t); err != nil {
					return errmsg.Error(errmsg.OpCatalogCheck, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), counter.summary(time.Since(start)))
				return nil
			})
		},
	}
}

func newRemoveFolderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-folder <folder>",
		Short: "Stop watching a folder and drop its songs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				var counter changeCounter
				defer a.Catalog.Subscribe(counter.listen)()
				start := time.Now()

				if err := a.Catalog.RemoveFolder(args[0]); err != nil {
					return errmsg.Error(errmsg.OpFolderRemove, err)
				}
				if err := a.Drain(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), counter.summary(time.Since(start)))
				return nil
			})
		},
	}
}

func newSongsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "songs [word...]",
		Short: "List songs matching every word",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				songs := a.Catalog.SearchSongs(args)
				total := len(songs)
				if limit > 0 && len(songs) > limit {
					songs = songs[:limit]
				}

				rows := make([][]string, 0, len(songs))
				for _, s := range songs {
					rows = append(rows, []string{
						s.Title(),
						joinNames(s.Artists()),
						s.Album(),
						trackLabel(s.TrackNumber()),
						formatDuration(s.Duration()),
						s.Filename(),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Title", "Artists", "Album", "Track", "Length", "File"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "%s of %s songs\n", humanize.Comma(int64(len(songs))), humanize.Comma(int64(total)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many songs")
	return cmd
}

func newAlbumsCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "albums [word...]",
		Short: "List albums matching every word",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				if all {
					a.Catalog.SetOnlyCompleteAlbums(false)
				}
				albums := a.Catalog.SearchAlbums(args)

				rows := make([][]string, 0, len(albums))
				for _, al := range albums {
					rows = append(rows, []string{
						al.Name(),
						joinNames(al.Artists()),
						al.Year(),
						strconv.Itoa(al.Len()),
						yesNo(al.Complete()),
						formatDuration(al.Duration()),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Album", "Artists", "Year", "Songs", "Complete", "Length"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "%s albums\n", humanize.Comma(int64(len(albums))))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include incomplete albums")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the catalog in sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				out := cmd.OutOrStdout()
				defer a.Catalog.Subscribe(func(e library.Event) {
					fmt.Fprintln(out, describeEvent(e))
				})()
				return a.Serve(cmd.Context())
			})
		},
	}
}

func describeEvent(e library.Event) string {
	switch {
	case e.Song != nil:
		return fmt.Sprintf("%s\t%s", e.Type, e.Song.Filename())
	case e.Album != nil:
		return fmt.Sprintf("%s\t%s", e.Type, e.Album.Key())
	default:
		return e.Type.String()
	}
}

func trackLabel(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
