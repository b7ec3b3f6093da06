package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"tradejournal/internal/config"
	"tradejournal/internal/logging"
	"tradejournal/pkg/journal"
)

// rootConfig carries the persistent flags and the lazily opened core.
type rootConfig struct {
	dbPath   string
	envFile  string
	logLevel string
	jsonOut  bool

	// generator overrides the one built from settings.
	generator journal.TextGenerator
	core      *journal.Core
	logger    *slog.Logger
}

func newRootCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journalctl",
		Short: "Inspect and maintain a trade journal database",
		Long: `journalctl works directly on the journal database used by the server.

It can:
  - report and run schema migrations
  - list accounts and trades
  - aggregate statistics for a period
  - run the position size and risk/reward calculators
  - ask the AI coach about a trade or a market

The database defaults to the one configured for the server; use --db to
point at another file.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rc.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&rc.dbPath, "db", "", "journal database path (default from TRADE_JOURNAL_DB_PATH or the user config)")
	flags.StringVar(&rc.envFile, "env-file", ".env", "environment file loaded before reading settings")
	flags.StringVar(&rc.logLevel, "log-level", "warn", "log level written to stderr")
	flags.BoolVar(&rc.jsonOut, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newMigrateCmd(rc),
		newInfoCmd(rc),
		newAccountsCmd(rc),
		newTradesCmd(rc),
		newStatsCmd(rc),
		newGoalsCmd(rc),
		newPositionSizeCmd(rc),
		newRiskRewardCmd(rc),
		newAnalyzeCmd(rc),
		newMarketCmd(rc),
		newQuoteCmd(rc),
	)
	return cmd
}

// open returns the core, opening it on first use. With migrate unset the
// store generation is left untouched.
func (rc *rootConfig) open(cmd *cobra.Command, migrate bool) (*journal.Core, error) {
	if rc.core != nil {
		return rc.core, nil
	}
	settings, err := config.LoadSettings(rc.envFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	rc.logger = logging.NewConsoleLogger(cmd.ErrOrStderr(), logging.Options{Level: rc.logLevel, Format: settings.LogFormat})

	dbPath := rc.dbPath
	if dbPath == "" {
		if dbPath, err = config.GetDBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	gen := rc.generator
	if gen == nil {
		gen, err = journal.NewTextGenerator(cmd.Context(), settings.AIConfig())
		if err != nil && !errors.Is(err, journal.ErrAPIKeyMissing) {
			rc.logger.Warn("ai provider unavailable", "provider", settings.AIProvider, "err", err)
		}
	}

	core, err := journal.OpenWithOptions(journal.Options{
		DBPath:         dbPath,
		Logger:         rc.logger,
		Generator:      gen,
		SkipMigrations: !migrate,
	})
	if err != nil {
		return nil, err
	}
	rc.core = core
	if err := core.StartupErr(); err != nil {
		return nil, err
	}
	return core, nil
}

func (rc *rootConfig) close() error {
	if rc.core == nil {
		return nil
	}
	err := rc.core.Close()
	rc.core = nil
	return err
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func amountString(a *journal.Amount) string {
	if a == nil {
		return "-"
	}
	return a.String()
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
