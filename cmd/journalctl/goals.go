package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tradejournal/pkg/journal"
)

func newGoalsCmd(rc *rootConfig) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List, add, track or remove daily, weekly and monthly goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			goals, err := core.Goals.ListGoals(cmd.Context(), journal.GoalPeriod(period))
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), goals)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPERIOD\tPROGRESS\tGOAL")
			for _, g := range goals {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", g.ID, g.Period, g.Progress, g.Text)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "only goals of this period: daily, weekly or monthly")
	cmd.AddCommand(newGoalAddCmd(rc), newGoalProgressCmd(rc), newGoalDeleteCmd(rc))
	return cmd
}

func newGoalAddCmd(rc *rootConfig) *cobra.Command {
	var period string
	var progress int
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			goal, err := core.Goals.CreateGoal(cmd.Context(), journal.GoalInput{
				Period:   journal.GoalPeriod(period),
				Text:     args[0],
				Progress: progress,
			})
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), goal)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s goal %s\n", goal.Period, goal.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", string(journal.GoalDaily), "daily, weekly or monthly")
	cmd.Flags().IntVar(&progress, "progress", 0, "initial progress, 0 to 100")
	return cmd
}

func newGoalProgressCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <goal-id> <percent>",
		Short: "Set the progress of a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid percent %q", args[1])
			}
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			goal, err := core.Goals.UpdateGoalProgress(cmd.Context(), args[0], percent)
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), goal)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goal %s at %d%%\n", goal.ID, goal.Progress)
			return nil
		},
	}
}

func newGoalDeleteCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			if err := core.Goals.DeleteGoal(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted goal %s\n", args[0])
			return nil
		},
	}
}
