package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/quokka/pkg/api"
	"github.com/unowned-ai/quokka/pkg/diary"
)

func TestSession_FullCycle(t *testing.T) {
	s := New()
	assert.Equal(t, StageWelcome, s.Stage())
	assert.Equal(t, diary.CompanionF, s.Companion)

	require.NoError(t, s.Begin("  Mina ", diary.CompanionT))
	assert.Equal(t, StageDiary, s.Stage())
	assert.Equal(t, "Mina", s.Name)
	assert.Equal(t, diary.CompanionT, s.Companion)

	s.DiaryText = "Today was hard"
	sub, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, diary.Submission{Content: "Today was hard", Companion: diary.CompanionT}, sub)
	assert.Equal(t, StageLoading, s.Stage())

	// Editing the text after submitting does not touch the frozen submission.
	s.DiaryText = "changed"
	frozen, ok := s.Submission()
	require.True(t, ok)
	assert.Equal(t, "Today was hard", frozen.Content)

	res := diary.Result{Text: &api.ProcessedResult{DiaryID: "abc123"}, Errors: []string{}}
	require.NoError(t, s.Complete(res))
	assert.Equal(t, StageResponse, s.Stage())

	got, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, "abc123", got.DiaryID())
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := New()
	_, err := s.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.Complete(diary.Result{}), ErrInvalidTransition)
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition)

	require.NoError(t, s.Begin("", diary.CompanionF))
	assert.ErrorIs(t, s.Begin("again", diary.CompanionF), ErrInvalidTransition)

	s.DiaryText = "x"
	_, err = s.Submit()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition, "cannot back out of an in-flight submission")
}

func TestSession_BeginRejectsUnknownCompanion(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Begin("Mina", diary.Companion("X")), diary.ErrInvalidCompanion)
	assert.Equal(t, StageWelcome, s.Stage())
}

func TestSession_SubmitRequiresText(t *testing.T) {
	s := New()
	require.NoError(t, s.Begin("Mina", diary.CompanionF))
	s.DiaryText = "   \n"
	_, err := s.Submit()
	assert.ErrorIs(t, err, ErrEmptyDiary)
	assert.Equal(t, StageDiary, s.Stage())
}

func TestSession_BackAndDiscard(t *testing.T) {
	s := New()
	require.NoError(t, s.Begin("Mina", diary.CompanionF))
	require.NoError(t, s.Back())
	assert.Equal(t, StageWelcome, s.Stage())

	require.NoError(t, s.Begin("Mina", diary.CompanionF))
	s.DiaryText = "entry"
	_, err := s.Submit()
	require.NoError(t, err)
	require.NoError(t, s.Complete(diary.Result{Errors: []string{diary.ErrMsgMissingDiaryID}}))

	require.NoError(t, s.Back())
	assert.Equal(t, StageDiary, s.Stage())
	assert.Equal(t, "entry", s.DiaryText)
	_, ok := s.Result()
	assert.False(t, ok)
	_, ok = s.Submission()
	assert.False(t, ok)
}

func TestSession_NewEntry(t *testing.T) {
	s := New()
	require.NoError(t, s.Begin("Mina", diary.CompanionT))
	s.DiaryText = "entry"
	_, err := s.Submit()
	require.NoError(t, err)
	require.NoError(t, s.Complete(diary.Result{}))

	s.NewEntry()
	assert.Equal(t, StageDiary, s.Stage())
	assert.Empty(t, s.DiaryText)
	assert.Equal(t, "Mina", s.Name)
	assert.Equal(t, diary.CompanionT, s.Companion)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "welcome", StageWelcome.String())
	assert.Equal(t, "response", StageResponse.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}
