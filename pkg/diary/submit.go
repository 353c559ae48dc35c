// Package diary orchestrates one diary submission against the generation
// service: text first, then image and voice side by side.
package diary

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/quokka/pkg/api"
)

const (
	ErrMsgMissingDiaryID = "diary_id not found in text response"
	ErrMsgImageFailed    = "Image API failed"
	ErrMsgVoiceFailed    = "Voice API failed"
	errMsgCallFailed     = "API call failed: "
)

// Poster performs one JSON POST. *api.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, endpoint string, payload any) (*api.ProcessedResult, error)
}

// Submitter runs submissions through a Poster.
type Submitter struct {
	poster Poster
	logger zerolog.Logger
}

func NewSubmitter(poster Poster, logger zerolog.Logger) *Submitter {
	return &Submitter{poster: poster, logger: logger}
}

// Submit never fails: every failure ends up in Result.Errors.
//
// The image and voice calls need the diary_id minted by the text call, so a
// text response without one stops the submission with a single error. Once
// the id is known both calls are issued together and awaited until both have
// settled; neither failure cancels the other. Nothing is retried.
func (s *Submitter) Submit(ctx context.Context, sub Submission) Result {
	text, err := s.settle(ctx, api.EndpointText, api.TextRequest{
		Content: sub.Content,
		Type:    string(sub.Companion),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("text generation failed")
		return Result{Errors: []string{errMsgCallFailed + err.Error()}}
	}

	if text.DiaryID == "" {
		s.logger.Warn().Str("service_error", text.Error).Msg(ErrMsgMissingDiaryID)
		return Result{Text: text, Errors: []string{ErrMsgMissingDiaryID}}
	}

	logger := s.logger.With().Str("diary_id", text.DiaryID).Logger()
	logger.Debug().Msg("text generated, requesting image and voice")

	media := api.MediaRequest{DiaryID: text.DiaryID, Compliment: text.Compliment}

	var (
		g                  errgroup.Group
		image, voice       *api.ProcessedResult
		imageErr, voiceErr error
	)
	g.Go(func() error {
		image, imageErr = s.settle(ctx, api.EndpointImage, media)
		return nil
	})
	g.Go(func() error {
		voice, voiceErr = s.settle(ctx, api.EndpointVoice, media)
		return nil
	})
	// Failures are kept in imageErr and voiceErr and both goroutines return
	// nil, so Wait only joins and its error is always nil.
	_ = g.Wait()

	result := Result{Text: text, Errors: []string{}}
	if imageErr != nil {
		logger.Warn().Err(imageErr).Msg("image generation failed")
		result.Errors = append(result.Errors, ErrMsgImageFailed)
	} else {
		result.Image = image
	}
	if voiceErr != nil {
		logger.Warn().Err(voiceErr).Msg("voice generation failed")
		result.Errors = append(result.Errors, ErrMsgVoiceFailed)
	} else {
		result.Voice = voice
	}

	logger.Info().Int("errors", len(result.Errors)).Msg("submission settled")
	return result
}

// settle runs one call and turns a panic into an error.
func (s *Submitter) settle(ctx context.Context, endpoint string, payload any) (res *api.ProcessedResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%s: panic: %v", endpoint, r)
		}
	}()

	res, err = s.poster.Post(ctx, endpoint, payload)
	if err == nil && res == nil {
		res = &api.ProcessedResult{}
	}
	return res, err
}
