package tui

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unowned-ai/quokka/pkg/api"
	pkgdb "github.com/unowned-ai/quokka/pkg/db"
	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/history"
	"github.com/unowned-ai/quokka/pkg/session"
)

type stubPoster struct {
	voiceErr error
}

func (s stubPoster) Post(ctx context.Context, endpoint string, payload any) (*api.ProcessedResult, error) {
	switch endpoint {
	case api.EndpointText:
		return &api.ProcessedResult{
			DiaryID:         "abc123",
			Compliment:      "That took courage.",
			QualityAnalysis: &api.QualityAnalysis{Level: "good", Message: "Honest entry"},
		}, nil
	case api.EndpointImage:
		return &api.ProcessedResult{ImageURL: "https://cdn.example/y.png"}, nil
	default:
		if s.voiceErr != nil {
			return nil, s.voiceErr
		}
		return &api.ProcessedResult{AudioURL: "https://cdn.example/y.mp3"}, nil
	}
}

func newTestModel(poster diary.Poster, db *sql.DB) model {
	return initModel(context.Background(), diary.NewSubmitter(poster, zerolog.Nop()), db)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// findSubmitResult runs cmd, expanding batches, and returns the submission result message.
func findSubmitResult(t *testing.T, cmd tea.Cmd) submitResultMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	switch msg := cmd().(type) {
	case submitResultMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if res, ok := c().(submitResultMsg); ok {
				return res
			}
		}
	}
	t.Fatal("no submitResultMsg produced")
	return submitResultMsg{}
}

func toDiary(t *testing.T, m model, name string, companion string) model {
	t.Helper()
	m = typeText(t, m, name)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // focus companion choice
	if companion == "T" {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.session.Stage() != session.StageDiary {
		t.Fatalf("expected diary stage, got %s", m.session.Stage())
	}
	return m
}

func TestWizard_FullCycle(t *testing.T) {
	m := newTestModel(stubPoster{}, nil)

	if !strings.Contains(m.View(), "Welcome") {
		t.Errorf("welcome screen not rendered")
	}

	m = toDiary(t, m, "Mina", "T")
	if m.session.Name != "Mina" || m.session.Companion != diary.CompanionT {
		t.Errorf("unexpected session choices: %q %q", m.session.Name, m.session.Companion)
	}
	if !strings.Contains(m.View(), diaryPrompt) {
		t.Errorf("diary prompt not rendered")
	}

	m = typeText(t, m, "Today was hard")
	if m.session.DiaryText != "Today was hard" {
		t.Fatalf("diary text not tracked, got %q", m.session.DiaryText)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.session.Stage() != session.StageLoading {
		t.Fatalf("expected loading stage, got %s", m.session.Stage())
	}
	if !strings.Contains(m.View(), loadingText) {
		t.Errorf("loading message not rendered")
	}

	// Keys are ignored while loading.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if m.quitting {
		t.Errorf("q must not quit while loading")
	}

	m, _ = update(t, m, findSubmitResult(t, cmd))
	if m.session.Stage() != session.StageResponse {
		t.Fatalf("expected response stage, got %s", m.session.Stage())
	}

	view := m.View()
	for _, want := range []string{"That took courage.", "https://cdn.example/y.png", "https://cdn.example/y.mp3", "Honest entry"} {
		if !strings.Contains(view, want) {
			t.Errorf("response view missing %q", want)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if m.session.Stage() != session.StageDiary || m.session.DiaryText != "" || m.diaryInput.Value() != "" {
		t.Errorf("new entry should start from an empty diary")
	}
	if m.session.Name != "Mina" {
		t.Errorf("new entry should keep the name")
	}
}

func TestWizard_PartialFailureShowsErrors(t *testing.T) {
	m := newTestModel(stubPoster{voiceErr: errors.New("boom")}, nil)
	m = toDiary(t, m, "", "F")
	m = typeText(t, m, "entry")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, findSubmitResult(t, cmd))

	res, ok := m.session.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	if len(res.Errors) != 1 || res.Errors[0] != diary.ErrMsgVoiceFailed {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	view := m.View()
	if !strings.Contains(view, diary.ErrMsgVoiceFailed) {
		t.Errorf("response view should list the voice failure")
	}
	if !strings.Contains(view, "https://cdn.example/y.png") {
		t.Errorf("image should still be shown")
	}
}

func TestWizard_EmptyDiaryIsNotSubmitted(t *testing.T) {
	m := newTestModel(stubPoster{}, nil)
	m = toDiary(t, m, "", "F")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Errorf("no command expected for an empty diary")
	}
	if m.session.Stage() != session.StageDiary {
		t.Errorf("expected to stay on the diary screen, got %s", m.session.Stage())
	}
	if m.notice != emptyNotice {
		t.Errorf("expected notice %q, got %q", emptyNotice, m.notice)
	}

	m = typeText(t, m, "x")
	if m.notice != "" {
		t.Errorf("notice should clear once text is typed, got %q", m.notice)
	}
}

func TestWizard_EditAfterResponseKeepsText(t *testing.T) {
	m := newTestModel(stubPoster{}, nil)
	m = toDiary(t, m, "", "F")
	m = typeText(t, m, "draft")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, findSubmitResult(t, cmd))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if m.session.Stage() != session.StageDiary {
		t.Fatalf("expected diary stage, got %s", m.session.Stage())
	}
	if m.session.DiaryText != "draft" || m.diaryInput.Value() != "draft" {
		t.Errorf("expected draft to be kept, got %q / %q", m.session.DiaryText, m.diaryInput.Value())
	}
	if _, ok := m.session.Result(); ok {
		t.Errorf("result should be discarded")
	}
}

func TestWizard_WelcomeKeys(t *testing.T) {
	m := newTestModel(stubPoster{}, nil)

	// Letters go to the name field while it has focus.
	m = typeText(t, m, "t")
	if m.nameInput.Value() != "t" || m.companionCursor != 0 {
		t.Errorf("typing in the name field must not change the companion")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "t")
	if m.companionCursor != 1 {
		t.Errorf("expected T to be selected")
	}
	if !strings.Contains(m.View(), diary.CompanionT.Description()) {
		t.Errorf("companion description not shown")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.quitting || cmd == nil {
		t.Errorf("esc on the welcome screen should quit")
	}
}

func TestWizard_DiaryEscGoesBack(t *testing.T) {
	m := newTestModel(stubPoster{}, nil)
	m = toDiary(t, m, "Mina", "F")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.session.Stage() != session.StageWelcome {
		t.Errorf("expected welcome stage, got %s", m.session.Stage())
	}
}

func TestWizard_RecordsHistory(t *testing.T) {
	db, err := pkgdb.OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer db.Close()
	if err := pkgdb.UpgradeDB(db, ":memory:", pkgdb.TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB failed: %v", err)
	}

	m := newTestModel(stubPoster{}, db)
	m = toDiary(t, m, "Mina", "F")
	m = typeText(t, m, "Today was hard")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	msg := findSubmitResult(t, cmd)
	if msg.historyErr != nil {
		t.Fatalf("history error: %v", msg.historyErr)
	}
	m, _ = update(t, m, msg)

	id, err := uuid.Parse(m.historyID)
	if err != nil {
		t.Fatalf("expected a history id, got %q", m.historyID)
	}
	record, err := history.GetRecord(context.Background(), db, id)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record.Name != "Mina" || record.DiaryID != "abc123" || record.Content != "Today was hard" {
		t.Errorf("unexpected record: %+v", record)
	}
	if !strings.Contains(m.View(), "Saved to history") {
		t.Errorf("history confirmation not shown")
	}
}

func TestHistoryFileName(t *testing.T) {
	if got := historyFileName(nil); got != "" {
		t.Errorf("expected empty name for nil db, got %q", got)
	}
}
