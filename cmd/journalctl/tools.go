package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradejournal/pkg/journal"
)

// amountFlags parses named decimal flags into amounts.
func amountFlags(values map[string]string) (map[string]journal.Amount, error) {
	out := make(map[string]journal.Amount, len(values))
	for name, raw := range values {
		a, err := journal.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q", name, raw)
		}
		out[name] = a
	}
	return out, nil
}

func newPositionSizeCmd(rc *rootConfig) *cobra.Command {
	var balance, risk, stop, pipValue string
	cmd := &cobra.Command{
		Use:   "position-size",
		Short: "Compute the lot size that risks a percentage of the balance",
		Example: `  journalctl position-size --balance 10000 --risk 1 --stop 20
  journalctl position-size --balance 5000 --risk 2 --stop 15 --pip-value 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := amountFlags(map[string]string{"balance": balance, "risk": risk, "stop": stop, "pip-value": pipValue})
			if err != nil {
				return err
			}
			res, err := journal.PositionSize(journal.PositionSizeRequest{
				Balance:      v["balance"],
				RiskPercent:  v["risk"],
				StopLossPips: v["stop"],
				PipValue:     v["pip-value"],
			})
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "risk amount: %s\nlot size:    %s\n", res.RiskAmount.StringFixed(2), res.LotSize.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&balance, "balance", "", "account balance")
	cmd.Flags().StringVar(&risk, "risk", "1", "risk per trade in percent")
	cmd.Flags().StringVar(&stop, "stop", "", "stop loss distance in pips")
	cmd.Flags().StringVar(&pipValue, "pip-value", "10", "value of one pip for one lot")
	_ = cmd.MarkFlagRequired("balance")
	_ = cmd.MarkFlagRequired("stop")
	return cmd
}

func newRiskRewardCmd(rc *rootConfig) *cobra.Command {
	var side, entry, stop, target string
	cmd := &cobra.Command{
		Use:     "risk-reward",
		Short:   "Compute the reward multiple of a planned trade",
		Example: `  journalctl risk-reward --type buy --entry 1.0750 --stop 1.0720 --target 1.0810`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := amountFlags(map[string]string{"entry": entry, "stop": stop, "target": target})
			if err != nil {
				return err
			}
			res, err := journal.RiskReward(journal.RiskRewardRequest{
				Type:       journal.TradeType(side),
				Entry:      v["entry"],
				StopLoss:   v["stop"],
				TakeProfit: v["target"],
			})
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "risk:   %s\nreward: %s\nratio:  1:%s\n", res.Risk.String(), res.Reward.String(), res.Ratio.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&side, "type", "buy", "buy or sell")
	cmd.Flags().StringVar(&entry, "entry", "", "entry price")
	cmd.Flags().StringVar(&stop, "stop", "", "stop loss price")
	cmd.Flags().StringVar(&target, "target", "", "take profit price")
	for _, name := range []string{"entry", "stop", "target"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
