package tui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/quokka/pkg/api"
	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/session"
)

const (
	titleText    = "Quokka - a diary that talks back"
	diaryPrompt  = "How are you today?"
	loadingText  = "So that happened…"
	emptyNotice  = "Write a few words first."
	nameCharMax  = 64
	diaryCharMax = 4000
)

var companions = []diary.Companion{diary.CompanionF, diary.CompanionT}

type model struct {
	ctx       context.Context
	session   *session.Session
	submitter *diary.Submitter

	db          *sql.DB // nil when history is off
	historyFile string

	nameInput  textinput.Model
	diaryInput textarea.Model
	spinner    spinner.Model

	welcomeFocus    int // 0 = name input, 1 = companion choice
	companionCursor int // index into companions

	notice     string
	historyID  string
	historyErr error

	width  int
	height int

	quitting bool
}

// Initialize TUI model
func initModel(ctx context.Context, submitter *diary.Submitter, db *sql.DB) model {
	name := textinput.New()
	name.Placeholder = "Your name (optional)"
	name.CharLimit = nameCharMax
	name.Focus()

	entry := textarea.New()
	entry.Placeholder = "Write about your day…"
	entry.CharLimit = diaryCharMax
	entry.ShowLineNumbers = false
	entry.SetHeight(8)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return model{
		ctx:         ctx,
		session:     session.New(),
		submitter:   submitter,
		db:          db,
		historyFile: historyFileName(db),

		nameInput:  name,
		diaryInput: entry,
		spinner:    sp,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// Processes window resizes, settled submissions, spinner ticks and key presses
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nameInput.Width = m.contentWidth() - 10
		m.diaryInput.SetWidth(m.contentWidth())
		return m, nil

	case submitResultMsg:
		if err := m.session.Complete(msg.result); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.historyID = msg.historyID
		m.historyErr = msg.historyErr
		return m, nil

	case spinner.TickMsg:
		// Let the spinner stop once the submission has settled.
		if m.session.Stage() != session.StageLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.session.Stage() {
		case session.StageWelcome:
			return m.updateWelcome(msg)
		case session.StageDiary:
			return m.updateDiary(msg)
		case session.StageResponse:
			return m.updateResponse(msg)
		default:
			// Keys are ignored while the submission is in flight.
			return m, nil
		}
	}

	// Cursor blink and other input-internal messages
	var cmd tea.Cmd
	switch m.session.Stage() {
	case session.StageWelcome:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case session.StageDiary:
		m.diaryInput, cmd = m.diaryInput.Update(msg)
	}
	return m, cmd
}

func (m model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab:
		return m.toggleWelcomeFocus()
	case tea.KeyEnter:
		if m.welcomeFocus == 0 {
			return m.toggleWelcomeFocus()
		}
		return m.begin()
	}

	if m.welcomeFocus == 0 {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k", "left", "h", "f", "F":
		m.companionCursor = 0
	case "down", "j", "right", "l", "t", "T":
		m.companionCursor = 1
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) toggleWelcomeFocus() (tea.Model, tea.Cmd) {
	if m.welcomeFocus == 0 {
		m.welcomeFocus = 1
		m.nameInput.Blur()
		return m, nil
	}
	m.welcomeFocus = 0
	return m, m.nameInput.Focus()
}

func (m model) begin() (tea.Model, tea.Cmd) {
	if err := m.session.Begin(m.nameInput.Value(), companions[m.companionCursor]); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	return m, m.diaryInput.Focus()
}

func (m model) updateDiary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		sub, err := m.session.Submit()
		if err != nil {
			if errors.Is(err, session.ErrEmptyDiary) {
				m.notice = emptyNotice
			} else {
				m.notice = err.Error()
			}
			return m, nil
		}
		m.notice = ""
		m.diaryInput.Blur()
		return m, tea.Batch(
			m.spinner.Tick,
			submitDiary(m.ctx, m.submitter, m.db, m.session.Name, sub),
		)

	case "esc":
		if err := m.session.Back(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.diaryInput.Blur()
		m.welcomeFocus = 1
		return m, nil
	}

	var cmd tea.Cmd
	m.diaryInput, cmd = m.diaryInput.Update(msg)
	m.session.DiaryText = m.diaryInput.Value()
	if m.notice == emptyNotice && strings.TrimSpace(m.session.DiaryText) != "" {
		m.notice = ""
	}
	return m, cmd
}

func (m model) updateResponse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		m.session.NewEntry()
		m.diaryInput.Reset()
		m.historyID, m.historyErr = "", nil
		return m, m.diaryInput.Focus()
	case "e", "esc":
		// Back to the editor with the same text; the result is discarded.
		if err := m.session.Back(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.historyID, m.historyErr = "", nil
		return m, m.diaryInput.Focus()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width == 0 {
		width = m.contentWidth() + 2*bordersAndPaddingWidth
	}
	titleBar := titleStyle.Width(width).Render(titleText)

	var body, help string
	switch m.session.Stage() {
	case session.StageWelcome:
		body = m.welcomeView()
		help = "tab to switch • ↑/↓ or f/t to pick • enter to continue • esc to quit"
	case session.StageDiary:
		body = m.diaryView()
		help = "ctrl+s to submit • esc to go back • ctrl+c to quit"
	case session.StageLoading:
		body = m.loadingView()
		help = "ctrl+c to quit"
	case session.StageResponse:
		body = m.responseView()
		help = "n for a new entry • e to edit this entry • q to quit"
	}

	if m.notice != "" {
		body += "\n\n" + textRedStyle.Render(m.notice)
	}

	if m.historyFile != "" {
		help += " • history: " + m.historyFile
	}

	panel := lipgloss.NewStyle().Padding(1, bordersAndPaddingWidth).Render(body)
	footerBar := footerStyle.Width(width).Render("\n" + help)

	return titleBar + "\n" + panel + footerBar
}

func (m model) welcomeView() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Welcome"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render("What should your Quokka call you?") + "\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")

	b.WriteString(textStyle.Render("Choose your Quokka:") + "\n")
	for i, c := range companions {
		isPoint := m.welcomeFocus == 1 && i == m.companionCursor
		itemStyle := inactiveStyle
		if i == m.companionCursor {
			itemStyle = selectedStyle
		}
		b.WriteString(generateLinePointer(isPoint, 2) + itemStyle.Render(fmt.Sprintf(" %s Quokka ", c)) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render(companions[m.companionCursor].Description()))

	return b.String()
}

func (m model) diaryView() string {
	var b strings.Builder

	if m.session.Name != "" {
		b.WriteString(textStyle.Render(fmt.Sprintf("Hi, %s.", m.session.Name)) + "\n")
	}
	b.WriteString(subtitleStyle.Render(diaryPrompt))
	b.WriteString("\n\n")
	b.WriteString(m.diaryInput.View())
	b.WriteString("\n" + hintStyle.Render(fmt.Sprintf("%s Quokka is listening.", m.session.Companion)))

	return b.String()
}

func (m model) loadingView() string {
	return m.spinner.View() + " " + subtitleStyle.Render(loadingText) + "\n\n" +
		hintStyle.Render("Your Quokka is writing back. Image and voice are on their way.")
}

func (m model) responseView() string {
	res, ok := m.session.Result()
	if !ok {
		return textRedStyle.Render("No response yet.")
	}

	var b strings.Builder

	if res.DiaryID() == "" {
		b.WriteString(subtitleStyle.Render("Your Quokka could not answer this time."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(subtitleStyle.Render("Your Quokka says"))
		b.WriteString("\n\n")
		if c := res.Compliment(); c != "" {
			b.WriteString(complimentStyle.Width(m.contentWidth()).Render(c))
			b.WriteString("\n\n")
		}
		if qa := res.Text.QualityAnalysis; qa != nil && (qa.Level != "" || qa.Message != "") {
			b.WriteString(labelStyle.Render("Entry quality: ") + textStyle.Render(strings.Trim(qa.Level+" - "+qa.Message, " -")) + "\n")
		}
		b.WriteString(labelStyle.Render("Image: ") + mediaLine(res.Image, res.ImageURL(), res.Errors, diary.ErrMsgImageFailed) + "\n")
		b.WriteString(labelStyle.Render("Voice: ") + mediaLine(res.Voice, res.AudioURL(), res.Errors, diary.ErrMsgVoiceFailed) + "\n")
	}

	for _, e := range res.ServiceErrors() {
		b.WriteString("\n" + hintStyle.Render("Service said: "+e))
	}
	if len(res.Errors) > 0 {
		b.WriteString("\n")
		for _, e := range res.Errors {
			b.WriteString("\n" + textRedStyle.Render("• "+e))
		}
	}

	switch {
	case m.historyErr != nil:
		b.WriteString("\n\n" + textRedStyle.Render("History not saved: "+m.historyErr.Error()))
	case m.historyID != "":
		b.WriteString("\n\n" + hintStyle.Render("Saved to history as "+m.historyID))
	}

	return b.String()
}

func mediaLine(res *api.ProcessedResult, url string, errs []string, failure string) string {
	switch {
	case res != nil && url != "":
		return TextStatusColorize(url, statusOK)
	case res != nil:
		return TextStatusColorize("no link returned", statusUnknown)
	case slices.Contains(errs, failure):
		return TextStatusColorize("failed", statusFailed)
	default:
		return TextStatusColorize("not generated", statusUnknown)
	}
}

// ShowTUI runs the diary wizard until the user quits or ctx is canceled.
// db may be nil to keep submissions out of history.
func ShowTUI(ctx context.Context, submitter *diary.Submitter, db *sql.DB) error {
	p := tea.NewProgram(initModel(ctx, submitter, db), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
