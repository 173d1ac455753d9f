package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/llehouerou/shelf/internal/app"
	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/logging"
)

type commandContext struct {
	configFlag *string
	ephemeral  *bool
	logLevel   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		ephemeral  bool
		logLevel   string
	)
	ctx := &commandContext{configFlag: &configFlag, ephemeral: &ephemeral, logLevel: &logLevel}

	rootCmd := &cobra.Command{
		Use:           "shelf",
		Short:         "Music catalog kept in sync with your folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the catalog in memory and write nothing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newRemoveFolderCommand(ctx))
	rootCmd.AddCommand(newSongsCommand(ctx))
	rootCmd.AddCommand(newAlbumsCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newPlaylistCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var (
			cfg *config.Config
			err error
		)
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			cfg, err = config.LoadFile(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = errmsg.Error(errmsg.OpConfigLoad, err)
			return
		}
		if *c.logLevel != "" {
			cfg.Log.Level = *c.logLevel
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withApp opens the catalog, runs fn and closes everything again.
func (c *commandContext) withApp(fn func(*app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Path:   cfg.Log.File,
	})
	if err != nil {
		return errmsg.Error(errmsg.OpInitialize, err)
	}
	defer closeLog() //nolint:errcheck // nothing left to report to

	a, err := app.Open(app.Options{Config: cfg, Logger: logger, Ephemeral: *c.ephemeral})
	if err != nil {
		return errmsg.Error(errmsg.OpCatalogOpen, err)
	}
	defer a.Close()

	return fn(a)
}
