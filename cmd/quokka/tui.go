package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/quokka/pkg/logging"
	"github.com/unowned-ai/quokka/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Write a diary entry in the terminal UI",
	Long: `Opens the interactive diary: pick a name and a companion, write about your day,
and read what your Quokka says back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Console logs would draw over the alternate screen.
		if !cfg.Debug {
			logging.InitWithWriter(io.Discard, cfg.LogLevel)
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		historyDB, err := openHistoryIfEnabled()
		if err != nil {
			return err
		}
		defer closeDB(historyDB)

		return tui.ShowTUI(cmd.Context(), newSubmitter(client), historyDB)
	},
}
