package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/unowned-ai/quokka/pkg/history"
)

var (
	historyLimitFlag   int
	historyAllFlag     bool
	historyJSONFlag    bool
	historyDiaryIDFlag string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded submissions",
	Long: `Lists, shows and deletes submissions recorded with --history (or QUOKKA_HISTORY=true).
Deleted records stay in the database until 'history clean' removes them.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded submissions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		records, err := history.ListRecords(cmd.Context(), dbConn, historyLimitFlag, historyAllFlag)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		w := cmd.OutOrStdout()
		if historyJSONFlag {
			if records == nil {
				records = []history.Record{}
			}
			return printJSON(w, records)
		}

		if len(records) == 0 {
			fmt.Fprintln(w, "No history records found.")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tTYPE\tDIARY ID\tSTATUS")
		for _, r := range records {
			status := "ok"
			switch {
			case r.Deleted:
				status = "deleted"
			case len(r.Errors) > 0:
				status = fmt.Sprintf("%d error(s)", len(r.Errors))
			}
			diaryID := r.DiaryID
			if diaryID == "" {
				diaryID = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, formatTimestamp(r.CreatedAt), r.Companion, diaryID, status)
		}
		return tw.Flush()
	},
}

var historyGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a recorded submission by record ID or --diary-id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && historyDiaryIDFlag == "" {
			return errors.New("a record ID or --diary-id is required")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		var record history.Record
		if len(args) == 1 {
			id, parseErr := uuid.Parse(args[0])
			if parseErr != nil {
				return fmt.Errorf("invalid record ID format: %w", parseErr)
			}
			record, err = history.GetRecord(cmd.Context(), dbConn, id)
		} else {
			record, err = history.GetRecordByDiaryID(cmd.Context(), dbConn, historyDiaryIDFlag)
		}
		if err != nil {
			if errors.Is(err, history.ErrRecordNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "History record not found.")
				return nil
			}
			return fmt.Errorf("failed to get history record: %w", err)
		}

		return printJSON(cmd.OutOrStdout(), record)
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search diary text and compliments",
	Long: `Finds recorded submissions whose diary text or compliment contains any of the
given terms (case-insensitive). Records matching more terms are listed first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		results, err := history.SearchRecords(cmd.Context(), dbConn, args, historyLimitFlag)
		if err != nil {
			return fmt.Errorf("failed to search history: %w", err)
		}

		w := cmd.OutOrStdout()
		if historyJSONFlag {
			if results == nil {
				results = []history.MatchedRecord{}
			}
			return printJSON(w, results)
		}

		if len(results) == 0 {
			fmt.Fprintln(w, "No matching records found.")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tMATCHES\tCONTENT")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, formatTimestamp(r.CreatedAt), r.MatchCount, truncate(r.Content, 48))
		}
		return tw.Flush()
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Mark a recorded submission as deleted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid record ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		if err := history.DeleteRecord(cmd.Context(), dbConn, id); err != nil {
			if errors.Is(err, history.ErrRecordNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "History record %s not found (or already deleted).\n", id)
				return nil
			}
			return fmt.Errorf("failed to delete history record: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "History record %s marked as deleted.\n", id)
		return nil
	},
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Permanently remove records marked as deleted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		n, err := history.CleanDeletedRecords(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to clean history: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d deleted record(s).\n", n)
		return nil
	},
}

func initHistoryCmd() {
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of records, 0 for all")
	historyListCmd.Flags().BoolVar(&historyAllFlag, "all", false, "Include records marked as deleted")
	historyListCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "Print records as JSON")

	historySearchCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of results, 0 for all")
	historySearchCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "Print results as JSON")

	historyGetCmd.Flags().StringVar(&historyDiaryIDFlag, "diary-id", "", "Look the record up by the diary_id the service assigned")

	historyCmd.AddCommand(historyListCmd, historySearchCmd, historyGetCmd, historyDeleteCmd, historyCleanCmd)
}
