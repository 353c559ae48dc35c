package diary

import (
	"errors"
	"strings"

	"github.com/unowned-ai/quokka/pkg/api"
)

var (
	ErrInvalidCompanion = errors.New("companion type must be F or T")
)

// Companion selects the tone of the generated compliment.
type Companion string

const (
	CompanionF Companion = "F" // feeling-oriented
	CompanionT Companion = "T" // thinking-oriented
)

// ParseCompanion accepts "F" or "T" in any case.
func ParseCompanion(s string) (Companion, error) {
	switch Companion(strings.ToUpper(strings.TrimSpace(s))) {
	case CompanionF:
		return CompanionF, nil
	case CompanionT:
		return CompanionT, nil
	default:
		return "", ErrInvalidCompanion
	}
}

func (c Companion) Valid() bool {
	return c == CompanionF || c == CompanionT
}

// Description is the one-line explanation shown when picking a companion.
func (c Companion) Description() string {
	switch c {
	case CompanionF:
		return "F Quokka is feeling-oriented and empathetic."
	case CompanionT:
		return "T Quokka is thinking-oriented and logical."
	default:
		return ""
	}
}

// Submission is one diary entry as handed to Submit. It is passed by value
// and never modified after submission.
type Submission struct {
	Content   string    `json:"content"`
	Companion Companion `json:"type"`
}

// Result aggregates the outcome of one submission attempt. Image and Voice
// are set only when their call succeeded; Errors lists one human-readable
// message per failure, image before voice.
type Result struct {
	Text   *api.ProcessedResult `json:"text_result,omitempty"`
	Image  *api.ProcessedResult `json:"image_result,omitempty"`
	Voice  *api.ProcessedResult `json:"voice_result,omitempty"`
	Errors []string             `json:"errors"`
}

// OK reports whether all three calls succeeded.
func (r Result) OK() bool {
	return r.Text != nil && r.Image != nil && r.Voice != nil && len(r.Errors) == 0
}

func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r Result) DiaryID() string {
	if r.Text == nil {
		return ""
	}
	return r.Text.DiaryID
}

func (r Result) Compliment() string {
	if r.Text == nil {
		return ""
	}
	return r.Text.Compliment
}

func (r Result) ImageURL() string {
	if r.Image == nil {
		return ""
	}
	return r.Image.ImageURL
}

func (r Result) AudioURL() string {
	return r.Voice.Audio()
}

// ServiceErrors collects the "error" fields the service put into otherwise
// successful responses, in text, image, voice order.
func (r Result) ServiceErrors() []string {
	var out []string
	for _, res := range []*api.ProcessedResult{r.Text, r.Image, r.Voice} {
		if res != nil && res.Error != "" {
			out = append(out, res.Error)
		}
	}
	return out
}
