package api

import "encoding/json"

// TextRequest is the body of a /generate/text call.
type TextRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// MediaRequest is the body of the /generate/image and /generate/voice calls.
type MediaRequest struct {
	DiaryID    string `json:"diary_id"`
	Compliment string `json:"compliment"`
}

// QualityAnalysis is the optional diary quality verdict attached to a text response.
type QualityAnalysis struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProcessedResult is a loosely-typed generation response. Each endpoint fills
// a different subset of the fields and none of them is guaranteed.
type ProcessedResult struct {
	DiaryID         string           `json:"diary_id,omitempty"`
	Compliment      string           `json:"compliment,omitempty"`
	QualityAnalysis *QualityAnalysis `json:"quality_analysis,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	AudioURL        string           `json:"audio_url,omitempty"`
	VoiceURL        string           `json:"voice_url,omitempty"`
	Error           string           `json:"error,omitempty"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// decodeProcessedResult reads a response body without enforcing its shape.
// Only invalid JSON is an error. Known fields are taken when they hold a
// string (or an object for quality_analysis) and ignored otherwise, and a
// body that is not an object yields an empty result.
func decodeProcessedResult(raw []byte) (*ProcessedResult, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	result := &ProcessedResult{Raw: raw}
	fields, ok := body.(map[string]any)
	if !ok {
		return result, nil
	}

	result.DiaryID = stringField(fields, "diary_id")
	result.Compliment = stringField(fields, "compliment")
	result.ImageURL = stringField(fields, "image_url")
	result.AudioURL = stringField(fields, "audio_url")
	result.VoiceURL = stringField(fields, "voice_url")
	result.Error = stringField(fields, "error")

	if qa, ok := fields["quality_analysis"].(map[string]any); ok {
		result.QualityAnalysis = &QualityAnalysis{
			Level:   stringField(qa, "level"),
			Message: stringField(qa, "message"),
		}
	}
	return result, nil
}

// stringField returns fields[key] when it is a string, "" otherwise.
func stringField(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}

// Audio returns the clip URL. The voice handler has shipped both audio_url
// and voice_url, audio_url wins when both are present.
func (r *ProcessedResult) Audio() string {
	if r == nil {
		return ""
	}
	if r.AudioURL != "" {
		return r.AudioURL
	}
	return r.VoiceURL
}

// Envelope is the uniform outcome of Client.Call.
type Envelope struct {
	Success bool             `json:"success"`
	Data    *ProcessedResult `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}
