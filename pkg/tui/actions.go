package tui

import (
	"context"
	"database/sql"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/history"
)

// submitResultMsg carries a settled submission back to Update.
type submitResultMsg struct {
	result     diary.Result
	historyID  string
	historyErr error
}

// Run the submission off the UI goroutine and record it when history is on
func submitDiary(ctx context.Context, submitter *diary.Submitter, db *sql.DB, name string, sub diary.Submission) tea.Cmd {
	return func() tea.Msg {
		msg := submitResultMsg{result: submitter.Submit(ctx, sub)}
		if db == nil {
			return msg
		}
		record, err := history.RecordSubmission(ctx, db, name, sub, msg.result)
		if err != nil {
			msg.historyErr = err
			return msg
		}
		msg.historyID = record.ID.String()
		return msg
	}
}

// Get database file name, empty for in-memory or missing databases
func historyFileName(db *sql.DB) string {
	if db == nil {
		return ""
	}
	var name, file string
	if err := db.QueryRow(`PRAGMA database_list`).Scan(new(int), &name, &file); err != nil || file == "" {
		return ""
	}
	return filepath.Base(file)
}
