package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/history"
)

var (
	submitTypeFlag    string
	submitContentFlag string
	submitNameFlag    string
	submitJSONFlag    bool
)

// submitOutput is what --json prints.
type submitOutput struct {
	diary.Result
	HistoryID string `json:"history_id,omitempty"`
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a diary entry",
	Long: `Sends a diary entry to the generation service and prints the compliment, image
and voice message returned for it.

The entry is read from --content, or from stdin when --content is not given.
Image and voice are requested together once the text call has returned a diary_id;
a failure of one does not stop the other.

Example:
  quokka submit --type F --content "Today was hard"
  echo "Today was hard" | quokka submit --type T --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		companion, err := diary.ParseCompanion(submitTypeFlag)
		if err != nil {
			return err
		}

		content := submitContentFlag
		if content == "" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read diary from stdin: %w", err)
			}
			// Only the line terminator of piped input is dropped.
			content = strings.TrimRight(string(raw), "\r\n")
		}
		if strings.TrimSpace(content) == "" {
			return errors.New("diary content cannot be empty")
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

		sub := diary.Submission{Content: content, Companion: companion}
		out := submitOutput{Result: newSubmitter(client).Submit(cmd.Context(), sub)}

		if historyDB != nil {
			record, err := history.RecordSubmission(cmd.Context(), historyDB, submitNameFlag, sub, out.Result)
			if err != nil {
				log.Warn().Err(err).Msg("failed to record submission")
			} else {
				out.HistoryID = record.ID.String()
			}
		}

		w := cmd.OutOrStdout()
		if submitJSONFlag {
			if err := printJSON(w, out); err != nil {
				return err
			}
		} else {
			printResult(w, out.Result, out.HistoryID)
		}

		if out.HasErrors() {
			return fmt.Errorf("submission finished with %d error(s)", len(out.Errors))
		}
		return nil
	},
}

func printResult(w io.Writer, res diary.Result, historyID string) {
	if id := res.DiaryID(); id != "" {
		fmt.Fprintf(w, "Diary ID:   %s\n", id)
	}
	if c := res.Compliment(); c != "" {
		fmt.Fprintf(w, "Compliment: %s\n", c)
	}
	if res.Text != nil && res.Text.QualityAnalysis != nil {
		qa := res.Text.QualityAnalysis
		fmt.Fprintf(w, "Quality:    %s\n", strings.Trim(qa.Level+" - "+qa.Message, " -"))
	}
	if u := res.ImageURL(); u != "" {
		fmt.Fprintf(w, "Image:      %s\n", u)
	}
	if u := res.AudioURL(); u != "" {
		fmt.Fprintf(w, "Voice:      %s\n", u)
	}
	for _, e := range res.ServiceErrors() {
		fmt.Fprintf(w, "Service:    %s\n", e)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "Error:      %s\n", e)
	}
	if historyID != "" {
		fmt.Fprintf(w, "History ID: %s\n", historyID)
	}
}

func initSubmitCmd() {
	submitCmd.Flags().StringVarP(&submitTypeFlag, "type", "t", "", "Companion type: F (feeling-oriented) or T (thinking-oriented) (required)")
	submitCmd.Flags().StringVarP(&submitContentFlag, "content", "c", "", "Diary text, read from stdin if omitted")
	submitCmd.Flags().StringVar(&submitNameFlag, "name", "", "Your name, stored with the history record")
	submitCmd.Flags().BoolVar(&submitJSONFlag, "json", false, "Print the full result as JSON")
	submitCmd.MarkFlagRequired("type")
	submitCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"F\tfeeling-oriented", "T\tthinking-oriented"}, cobra.ShellCompDirectiveNoFileComp
	})
}
