package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tradejournal/pkg/journal"
)

func newInfoCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the database, its generation and collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			info, err := core.StorageInfo(cmd.Context())
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database:   %s\n", info.DBPath)
			fmt.Fprintf(out, "generation: %d of %d\n", info.Generation.StoredVersion, info.Generation.CurrentVersion)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COLLECTION\tKEY\tINDEXES\tRECORDS")
			for _, c := range info.Collections {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.Name, c.KeyPath, len(c.Indexes), c.Records)
			}
			return tw.Flush()
		},
	}
}

func newAccountsCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List or remove accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			accounts, err := core.Accounts.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), accounts)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBALANCE")
			for _, a := range accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Name, amountString(a.Balance))
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(newAccountDeleteCmd(rc))
	return cmd
}

func newAccountDeleteCmd(rc *rootConfig) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete an account together with its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if id == journal.DefaultAccountID && !force {
				return fmt.Errorf("refusing to delete the default account without --force")
			}
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			removed, err := core.Accounts.DeleteAccountCascade(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted account %s and %d trades\n", id, removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "allow deleting the default account")
	return cmd
}

func newTradesCmd(rc *rootConfig) *cobra.Command {
	var accountID string
	var limit int
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			var trades []journal.Trade
			if accountID != "" {
				trades, err = core.Trades.ListTradesByAccount(cmd.Context(), accountID)
			} else {
				trades, err = core.Trades.ListTrades(cmd.Context())
			}
			if err != nil {
				return err
			}
			journal.SortTradesByDateDesc(trades)
			if limit > 0 && len(trades) > limit {
				trades = trades[:limit]
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), trades)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tACCOUNT\tPAIR\tTYPE\tPNL\tRR\tRATING")
			for _, t := range trades {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					t.ID, t.Date.Format(time.DateOnly), t.AccountID, t.Pair, t.Type, t.PnL.String(), t.RR.String(), t.Rating)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "only trades of this account")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of trades (0 for all)")
	return cmd
}

func newStatsCmd(rc *rootConfig) *cobra.Command {
	var accountID, period, start, end string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate win rate, P/L and balance for a period",
		Long: `Aggregate statistics for a period: all, today, week, month, year or custom.
A custom period takes --start and --end as YYYY-MM-DD.

Examples:
  journalctl stats --period month
  journalctl stats --account default --period custom --start 2024-07-01 --end 2024-07-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := journal.ParsePeriod(period)
			if err != nil {
				return err
			}
			startDay, err := parseDayFlag("start", start)
			if err != nil {
				return err
			}
			endDay, err := parseDayFlag("end", end)
			if err != nil {
				return err
			}
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			var stats journal.Stats
			if accountID != "" {
				stats, err = core.AccountStats(cmd.Context(), accountID, p, startDay, endDay)
			} else {
				stats, err = core.Stats(cmd.Context(), p, startDay, endDay)
			}
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trades:           %d (%d wins, %d losses)\n", stats.TotalTrades, stats.Wins, stats.Losses)
			fmt.Fprintf(out, "win rate:         %s%%\n", stats.WinRate.String())
			fmt.Fprintf(out, "total P/L:        %s\n", stats.TotalPnL.StringFixed(2))
			fmt.Fprintf(out, "starting balance: %s\n", stats.StartingBalance.StringFixed(2))
			fmt.Fprintf(out, "current balance:  %s\n", stats.CurrentBalance.StringFixed(2))
			if len(stats.PnLByPair) > 0 {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PAIR\tPNL")
				for _, p := range stats.PnLByPair {
					fmt.Fprintf(tw, "%s\t%s\n", p.Pair, p.PnL.StringFixed(2))
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "only trades of this account, over its balance")
	cmd.Flags().StringVar(&period, "period", "all", "all, today, week, month, year or custom")
	cmd.Flags().StringVar(&start, "start", "", "custom period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "custom period end (YYYY-MM-DD)")
	return cmd
}

func parseDayFlag(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, raw)
	}
	return t, nil
}
