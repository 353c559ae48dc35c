// Package api is a thin JSON client for the Quokka Diary generation service.
//
// The service exposes three POST endpoints under one base URL:
//  1. /generate/text takes the diary content and companion type and mints a
//     diary_id together with a compliment
//  2. /generate/image draws the compliment for a diary_id
//  3. /generate/voice reads the compliment aloud for a diary_id
//
// HTTP status codes are not interpreted. Any JSON body is handed back to the
// caller (error responses carry an "error" field), only transport failures
// and bodies that are not JSON at all are reported as errors. The response
// shape is not validated: mistyped fields read as absent.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL points at a `sam local start-api` instance of the service.
	DefaultBaseURL = "http://127.0.0.1:3000"

	EndpointText  = "/generate/text"
	EndpointImage = "/generate/image"
	EndpointVoice = "/generate/voice"
)

// Client posts generation requests to the service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New constructs a Client for baseURL. No request timeout is set unless
// WithHTTPTimeout is passed; callers bound requests with their context.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  log.Logger,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends payload as JSON to endpoint and decodes the response body.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*ProcessedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		observeRequest(endpoint, outcomeTransportError, start)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observeRequest(endpoint, outcomeTransportError, start)
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	result, err := decodeProcessedResult(raw)
	if err != nil {
		observeRequest(endpoint, outcomeDecodeError, start)
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	observeRequest(endpoint, outcomeOK, start)
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status_code", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("generation response")
	return result, nil
}

// Call is Post folded into an Envelope: it never fails, failures come back
// as {success: false, error: <message>}.
func (c *Client) Call(ctx context.Context, endpoint string, payload any) Envelope {
	result, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return Envelope{Success: true, Data: result}
}

// GenerateText calls /generate/text.
func (c *Client) GenerateText(ctx context.Context, content, companionType string) Envelope {
	return c.Call(ctx, EndpointText, TextRequest{Content: content, Type: companionType})
}

// GenerateImage calls /generate/image.
func (c *Client) GenerateImage(ctx context.Context, diaryID, compliment string) Envelope {
	return c.Call(ctx, EndpointImage, MediaRequest{DiaryID: diaryID, Compliment: compliment})
}

// GenerateVoice calls /generate/voice.
func (c *Client) GenerateVoice(ctx context.Context, diaryID, compliment string) Envelope {
	return c.Call(ctx, EndpointVoice, MediaRequest{DiaryID: diaryID, Compliment: compliment})
}
