package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cesargomez89/songplays/internal/app"
	"github.com/cesargomez89/songplays/internal/config"
	"github.com/cesargomez89/songplays/internal/constants"
	"github.com/cesargomez89/songplays/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "songplays",
		Short:        "Load song metadata and activity logs into a star schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Database engine ("+constants.DriverSQLite+" or "+constants.DriverPostgres+")")
	flags.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database file")
	flags.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "Postgres host")
	flags.StringVar(&cfg.DBPort, "db-port", cfg.DBPort, "Postgres port")
	flags.StringVar(&cfg.DBUser, "db-user", cfg.DBUser, "Postgres user")
	flags.StringVar(&cfg.DBPassword, "db-password", cfg.DBPassword, "Postgres password")
	flags.StringVar(&cfg.DBName, "db-name", cfg.DBName, "Target database name")
	flags.StringVar(&cfg.SongDataDir, "song-data", cfg.SongDataDir, "Root directory of song metadata files")
	flags.StringVar(&cfg.LogDataDir, "log-data", cfg.LogDataDir, "Root directory of activity log files")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log every skipped record")

	rootCmd.AddCommand(newInitSchemaCmd(cfg), newETLCmd(cfg))
	return rootCmd
}

func newInitSchemaCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Drop and recreate the target database and its tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.InitSchema(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}
}

func newETLCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "etl",
		Short: "Load every song file, then every log file, into the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.Run(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func newLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	return logger.New(logger.Config{
		Output: out,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}

func printSummary(w io.Writer, s *app.Summary) {
	fmt.Fprintf(w, "Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  song files: %d found, %d processed, %d skipped\n", s.SongFiles.Found, s.SongFiles.Processed, s.SongFiles.Skipped)
	fmt.Fprintf(w, "  log files:  %d found, %d processed, %d skipped\n", s.LogFiles.Found, s.LogFiles.Processed, s.LogFiles.Skipped)
	fmt.Fprintf(w, "  records skipped: %d, events filtered: %d, lookup misses: %d\n", s.RecordsSkipped, s.EventsFiltered, s.LookupMisses)
	for _, table := range constants.Tables {
		fmt.Fprintf(w, "  %-10s %d rows\n", table, s.Rows[table])
	}
}
