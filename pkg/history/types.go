package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/quokka/pkg/diary"
)

// Record is one stored submission and what the service returned for it.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	DiaryID        string          `json:"diary_id,omitempty"`
	Name           string          `json:"name,omitempty"`
	Companion      diary.Companion `json:"type"`
	Content        string          `json:"content"`
	Compliment     string          `json:"compliment,omitempty"`
	QualityLevel   string          `json:"quality_level,omitempty"`
	QualityMessage string          `json:"quality_message,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	AudioURL       string          `json:"audio_url,omitempty"`
	Errors         []string        `json:"errors"`
	Deleted        bool            `json:"deleted"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OK reports whether every call of the stored submission succeeded.
func (r Record) OK() bool {
	return r.DiaryID != "" && len(r.Errors) == 0
}

func unixFloatToTime(v float64) time.Time {
	sec := int64(v)
	return time.Unix(sec, int64((v-float64(sec))*1e9))
}
