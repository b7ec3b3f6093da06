package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"tradejournal/pkg/journal"
)

// coachFlags selects how markdown answers are printed.
type coachFlags struct {
	raw   bool
	width int
	style string
}

func (f *coachFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.raw, "raw", false, "print the markdown without rendering it")
	cmd.Flags().IntVar(&f.width, "width", 80, "word wrap width for rendered output")
	cmd.Flags().StringVar(&f.style, "style", "notty", "glamour style: notty, dark, light or auto")
}

func (f *coachFlags) write(w io.Writer, rc *rootConfig, advice journal.Advice) error {
	if rc.jsonOut {
		return printJSON(w, advice)
	}
	if f.raw {
		_, err := fmt.Fprintln(w, advice.Text)
		return err
	}
	rendered, err := renderMarkdown(advice.Text, f.style, f.width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func renderMarkdown(text, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func newAnalyzeCmd(rc *rootConfig) *cobra.Command {
	var flags coachFlags
	cmd := &cobra.Command{
		Use:   "analyze <trade-id>",
		Short: "Ask the AI coach for feedback on one trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			advice, err := core.AnalyzeTrade(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return flags.write(cmd.OutOrStdout(), rc, advice)
		},
	}
	flags.register(cmd)
	return cmd
}

func newMarketCmd(rc *rootConfig) *cobra.Command {
	var flags coachFlags
	cmd := &cobra.Command{
		Use:   "market <pair>",
		Short: "Ask the AI coach for a short technical outlook on a pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair := strings.TrimSpace(args[0])
			if pair == "" {
				return fmt.Errorf("pair is required")
			}
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			return flags.write(cmd.OutOrStdout(), rc, core.Coach().AnalyzeMarket(cmd.Context(), pair))
		},
	}
	flags.register(cmd)
	return cmd
}

func newQuoteCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print a motivational quote for traders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, true)
			if err != nil {
				return err
			}
			advice := core.Coach().MotivationQuote(cmd.Context())
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), advice)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), advice.Text)
			return err
		},
	}
}
