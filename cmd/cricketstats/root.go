package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cricketstats/internal/config"
	"cricketstats/internal/logging"
	"cricketstats/internal/storage/sqlite"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, v: config.NewViper()}

	root := &cobra.Command{
		Use:           "cricketstats",
		Short:         "Cricket ball-by-ball ingestion and statistics",
		Long:          color.CyanString("cricketstats - load Cricsheet ODI archives into SQLite and report on them"),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().String("db", "", "SQLite database path (overrides database_path)")
	root.PersistentFlags().String("data-dir", "", "directory holding extracted batches (overrides data_dir)")
	_ = a.v.BindPFlag("database_path", root.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("data_dir", root.PersistentFlags().Lookup("data-dir"))

	root.AddCommand(
		newFetchCmd(a),
		newIngestCmd(a),
		newSyncCmd(a),
		newReportCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load reads configuration and builds the logger. Subcommands call it first.
func (a *app) load() error {
	if a.verbose {
		a.v.Set("log.level", "debug")
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) storeConfig() sqlite.Config {
	return sqlite.Config{Path: a.cfg.DatabasePath, ForeignKeys: a.cfg.Database.ForeignKeys}
}

// withLoaded wraps a RunE so configuration and logging are ready and the
// logger is synced afterwards.
func (a *app) withLoaded(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.load(); err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()
		return fn(cmd, args)
	}
}
