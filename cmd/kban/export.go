package main

import (
	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored board as JSON to stdout",
	Long:  "Write the stored board to stdout in the same JSON layout the storage backends use.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := readBoard(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = out.Write([]byte("\n"))
	return err
}
