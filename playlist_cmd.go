package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/shelf/internal/app"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/playlist"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Show or edit the saved playlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newPlaylistShowCommand(ctx))
	cmd.AddCommand(newPlaylistAddCommand(ctx))
	cmd.AddCommand(newPlaylistClearCommand(ctx))
	return cmd
}

func newPlaylistShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				p, err := a.LoadPlaylist()
				if p == nil {
					return errmsg.Error(errmsg.OpPlaylistLoad, err)
				}
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), errmsg.Format(errmsg.OpPlaylistLoad, err))
				}

				rows := make([][]string, 0, p.Len())
				for i, e := range p.Entries() {
					marker := ""
					if i == p.PlayingIndex() {
						marker = "▶"
					}
					rows = append(rows, []string{
						marker,
						fmt.Sprint(i + 1),
						e.Song.Title(),
						joinNames(e.Song.Artists()),
						formatDuration(e.Song.Duration()),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"", "#", "Title", "Artists", "Length"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight},
				))
				return saveCatalogChanges(cmd, a)
			})
		},
	}
}

func newPlaylistAddCommand(ctx *commandContext) *cobra.Command {
	var play bool
	cmd := &cobra.Command{
		Use:   "add <file...>",
		Short: "Append files to the playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				p, err := a.LoadPlaylist()
				if err != nil {
					return errmsg.Error(errmsg.OpPlaylistLoad, err)
				}

				for i, path := range args {
					song, err := playlist.Resolve(a.Catalog, path)
					if err != nil {
						return errmsg.Error(errmsg.OpSongAdd, err)
					}
					if _, err := p.Add(song); err != nil {
						return errmsg.Error(errmsg.OpSongAdd, err)
					}
					if play && i == 0 {
						p.SetPlaying(p.Len() - 1)
					}
				}
				return savePlaylist(cmd, a, p)
			})
		},
	}
	cmd.Flags().BoolVarP(&play, "play", "p", false, "Mark the first added file as playing")
	return cmd
}

func newPlaylistClearCommand(ctx *commandContext) *cobra.Command {
	var played bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				p, err := a.LoadPlaylist()
				if err != nil {
					return errmsg.Error(errmsg.OpPlaylistLoad, err)
				}
				if !played {
					p.Clear()
				}
				path, err := a.PlaylistPath()
				if err != nil {
					return err
				}
				if err := p.SaveFile(path, played); err != nil {
					return errmsg.Error(errmsg.OpPlaylistSave, err)
				}
				return saveCatalogChanges(cmd, a)
			})
		},
	}
	cmd.Flags().BoolVar(&played, "played", false, "Only drop the entries before the playing one")
	return cmd
}

func savePlaylist(cmd *cobra.Command, a *app.App, p *playlist.Playlist) error {
	path, err := a.PlaylistPath()
	if err != nil {
		return err
	}
	if err := p.SaveFile(path, false); err != nil {
		return errmsg.Error(errmsg.OpPlaylistSave, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entries in %s\n", p.Len(), path)
	return saveCatalogChanges(cmd, a)
}

// saveCatalogChanges delivers notifications for songs added while
// resolving playlist lines.
func saveCatalogChanges(cmd *cobra.Command, a *app.App) error {
	return a.Drain(cmd.Context())
}
