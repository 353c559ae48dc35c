// Package session holds the state of one diary cycle: the welcome choices,
// the diary text being written, the frozen submission and its result.
//
// A Session is owned by a single caller (one TUI program, one CLI run) and
// is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unowned-ai/quokka/pkg/diary"
)

var (
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrEmptyDiary        = errors.New("diary text cannot be empty")
)

// Stage is the screen the session is on.
type Stage int

const (
	StageWelcome Stage = iota
	StageDiary
	StageLoading
	StageResponse
)

func (s Stage) String() string {
	switch s {
	case StageWelcome:
		return "welcome"
	case StageDiary:
		return "diary"
	case StageLoading:
		return "loading"
	case StageResponse:
		return "response"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type Session struct {
	Name      string
	Companion diary.Companion
	DiaryText string

	stage      Stage
	submission *diary.Submission
	result     *diary.Result
}

// New returns a session on the welcome screen with the F companion preselected.
func New() *Session {
	return &Session{Companion: diary.CompanionF, stage: StageWelcome}
}

func (s *Session) Stage() Stage {
	return s.stage
}

// Begin records the welcome choices and moves to the diary screen.
func (s *Session) Begin(name string, companion diary.Companion) error {
	if s.stage != StageWelcome {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.stage)
	}
	if !companion.Valid() {
		return diary.ErrInvalidCompanion
	}
	s.Name = strings.TrimSpace(name)
	s.Companion = companion
	s.stage = StageDiary
	return nil
}

// Submit freezes the diary text into a Submission and moves to loading.
func (s *Session) Submit() (diary.Submission, error) {
	if s.stage != StageDiary {
		return diary.Submission{}, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.stage)
	}
	if strings.TrimSpace(s.DiaryText) == "" {
		return diary.Submission{}, ErrEmptyDiary
	}
	sub := diary.Submission{Content: s.DiaryText, Companion: s.Companion}
	s.submission = &sub
	s.stage = StageLoading
	return sub, nil
}

// Complete stores the result of the in-flight submission.
func (s *Session) Complete(res diary.Result) error {
	if s.stage != StageLoading {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, s.stage)
	}
	s.result = &res
	s.stage = StageResponse
	return nil
}

func (s *Session) Submission() (diary.Submission, bool) {
	if s.submission == nil {
		return diary.Submission{}, false
	}
	return *s.submission, true
}

func (s *Session) Result() (diary.Result, bool) {
	if s.result == nil {
		return diary.Result{}, false
	}
	return *s.result, true
}

// Back moves one screen back. Leaving the response screen discards the
// result and keeps the diary text for editing. A submission in flight
// cannot be backed out of.
func (s *Session) Back() error {
	switch s.stage {
	case StageDiary:
		s.stage = StageWelcome
	case StageResponse:
		s.Discard()
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.stage)
	}
	return nil
}

// Discard drops the submission and result and returns to the diary screen.
func (s *Session) Discard() {
	s.submission = nil
	s.result = nil
	if s.stage != StageWelcome {
		s.stage = StageDiary
	}
}

// NewEntry starts another cycle with the same name and companion.
func (s *Session) NewEntry() {
	s.Discard()
	s.DiaryText = ""
}
