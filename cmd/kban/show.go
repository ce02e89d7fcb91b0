package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/render"
)

var (
	showQuery    string
	showPriority string
	showWidth    int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the board as terminal columns",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showQuery, "query", "q", "", "only show cards whose title or description contains this text")
	showCmd.Flags().StringVarP(&showPriority, "priority", "p", board.PriorityAll, "only show cards of this priority (low, medium, high, all)")
	showCmd.Flags().IntVarP(&showWidth, "width", "w", 28, "column width")
}

func runShow(cmd *cobra.Command, _ []string) error {
	switch showPriority {
	case board.PriorityAll, string(board.PriorityLow), string(board.PriorityMedium), string(board.PriorityHigh):
	default:
		return fmt.Errorf("invalid priority %q", showPriority)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := readBoard(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	f := board.Filter{Query: showQuery, Priority: showPriority}
	fmt.Fprintln(cmd.OutOrStdout(), render.Terminal(snap, f, showWidth))
	return nil
}
