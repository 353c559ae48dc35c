package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/quokka/pkg/api"
	pkgdb "github.com/unowned-ai/quokka/pkg/db"
	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/history"
)

// fakeService mimics the three generation endpoints.
type fakeService struct {
	voiceStatus int

	mu          sync.Mutex
	lastContent string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case api.EndpointText:
		var req api.TextRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.lastContent = req.Content
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"diary_id":"abc123","compliment":"You did well"}`))
	case api.EndpointImage:
		_, _ = w.Write([]byte(`{"image_url":"https://cdn.example/y.png"}`))
	case api.EndpointVoice:
		if f.voiceStatus != 0 {
			w.WriteHeader(f.voiceStatus)
			_, _ = w.Write([]byte(`not json`))
			return
		}
		_, _ = w.Write([]byte(`{"voice_url":"https://cdn.example/y.mp3"}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, svc *fakeService) *api.Client {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, api.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return client
}

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := pkgdb.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, pkgdb.UpgradeDB(db, ":memory:", pkgdb.TargetSchemaVersion))
	return db
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return text.Text
}

func TestPingHandler(t *testing.T) {
	res, err := pingHandler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "pong_quokka", resultText(t, res))
}

func TestSubmitDiaryHandler_RecordsHistory(t *testing.T) {
	svc := &fakeService{}
	client := newTestClient(t, svc)
	db := setupHistoryDB(t)
	submitter := diary.NewSubmitter(client, zerolog.Nop())

	res, err := submitDiaryHandler(submitter, db)(context.Background(), callRequest(map[string]any{
		"content": "Today was hard",
		"type":    "f",
		"name":    "Mina",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var resp struct {
		TextResult  *api.ProcessedResult `json:"text_result"`
		ImageResult *api.ProcessedResult `json:"image_result"`
		VoiceResult *api.ProcessedResult `json:"voice_result"`
		Errors      []string             `json:"errors"`
		HistoryID   string               `json:"history_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
	assert.Equal(t, "abc123", resp.TextResult.DiaryID)
	assert.Equal(t, "https://cdn.example/y.png", resp.ImageResult.ImageURL)
	assert.Equal(t, "https://cdn.example/y.mp3", resp.VoiceResult.Audio())
	assert.Empty(t, resp.Errors)
	require.NotEmpty(t, resp.HistoryID)

	record, err := history.GetRecordByDiaryID(context.Background(), db, "abc123")
	require.NoError(t, err)
	assert.Equal(t, resp.HistoryID, record.ID.String())
	assert.Equal(t, "Mina", record.Name)
	assert.Equal(t, diary.CompanionF, record.Companion)
}

func TestTextHandlers_SendContentVerbatim(t *testing.T) {
	const content = "  Today was hard.\n\n  Tomorrow will be better.\n"
	svc := &fakeService{}
	client := newTestClient(t, svc)
	db := setupHistoryDB(t)
	args := map[string]any{"content": content, "type": "F"}

	res, err := submitDiaryHandler(diary.NewSubmitter(client, zerolog.Nop()), db)(context.Background(), callRequest(args))
	require.NoError(t, err)
	require.False(t, res.IsError)
	svc.mu.Lock()
	assert.Equal(t, content, svc.lastContent)
	svc.lastContent = ""
	svc.mu.Unlock()

	record, err := history.GetRecordByDiaryID(context.Background(), db, "abc123")
	require.NoError(t, err)
	assert.Equal(t, content, record.Content)

	res, err = generateTextHandler(client)(context.Background(), callRequest(args))
	require.NoError(t, err)
	require.False(t, res.IsError)
	svc.mu.Lock()
	assert.Equal(t, content, svc.lastContent)
	svc.mu.Unlock()
}

func TestSubmitDiaryHandler_PartialFailure(t *testing.T) {
	svc := &fakeService{voiceStatus: http.StatusBadGateway}
	client := newTestClient(t, svc)
	submitter := diary.NewSubmitter(client, zerolog.Nop())

	res, err := submitDiaryHandler(submitter, nil)(context.Background(), callRequest(map[string]any{
		"content": "Today was hard",
		"type":    "T",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, "partial failures are reported in the payload")

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
	assert.Equal(t, []any{diary.ErrMsgVoiceFailed}, resp["errors"])
	assert.NotContains(t, resp, "voice_result")
	assert.NotContains(t, resp, "history_id")
}

func TestSubmitDiaryHandler_Validation(t *testing.T) {
	submitter := diary.NewSubmitter(newTestClient(t, &fakeService{}), zerolog.Nop())
	handler := submitDiaryHandler(submitter, nil)

	cases := map[string]map[string]any{
		"missing content": {"type": "F"},
		"blank content":   {"content": "  ", "type": "F"},
		"bad type":        {"content": "x", "type": "Q"},
		"missing type":    {"content": "x"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := handler(context.Background(), callRequest(args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestGenerateHandlers(t *testing.T) {
	svc := &fakeService{}
	client := newTestClient(t, svc)
	ctx := context.Background()

	res, err := generateTextHandler(client)(ctx, callRequest(map[string]any{"content": "x", "type": "F"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var env api.Envelope
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "abc123", env.Data.DiaryID)

	res, err = generateMediaHandler(client, api.EndpointImage)(ctx, callRequest(map[string]any{"diary_id": "abc123", "compliment": "c"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	env = api.Envelope{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &env))
	assert.Equal(t, "https://cdn.example/y.png", env.Data.ImageURL)

	res, err = generateMediaHandler(client, api.EndpointVoice)(ctx, callRequest(map[string]any{"compliment": "c"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "diary_id is required")
}

func TestGenerateHandlers_DecodeFailureIsToolError(t *testing.T) {
	client := newTestClient(t, &fakeService{voiceStatus: http.StatusInternalServerError})

	res, err := generateMediaHandler(client, api.EndpointVoice)(context.Background(), callRequest(map[string]any{"diary_id": "abc123"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHistoryHandlers(t *testing.T) {
	db := setupHistoryDB(t)
	ctx := context.Background()

	res := diary.Result{Text: &api.ProcessedResult{DiaryID: "abc123"}, Errors: []string{diary.ErrMsgImageFailed}}
	record, err := history.RecordSubmission(ctx, db, "Mina", diary.Submission{Content: "x", Companion: diary.CompanionF}, res)
	require.NoError(t, err)

	listRes, err := listHistoryHandler(db)(ctx, callRequest(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(t, listRes)), &records))
	require.Len(t, records, 1)
	assert.Equal(t, []string{diary.ErrMsgImageFailed}, records[0].Errors)

	neg, err := listHistoryHandler(db)(ctx, callRequest(map[string]any{"limit": float64(-1)}))
	require.NoError(t, err)
	assert.True(t, neg.IsError)

	byID, err := getHistoryHandler(db)(ctx, callRequest(map[string]any{"id": record.ID.String()}))
	require.NoError(t, err)
	require.False(t, byID.IsError)

	byDiary, err := getHistoryHandler(db)(ctx, callRequest(map[string]any{"diary_id": "abc123"}))
	require.NoError(t, err)
	var got history.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(t, byDiary)), &got))
	assert.Equal(t, record.ID, got.ID)

	missing, err := getHistoryHandler(db)(ctx, callRequest(map[string]any{"diary_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, missing.IsError)
	assert.Equal(t, "History record not found.", resultText(t, missing))

	bad, err := getHistoryHandler(db)(ctx, callRequest(map[string]any{"id": "not-a-uuid"}))
	require.NoError(t, err)
	assert.True(t, bad.IsError)

	none, err := getHistoryHandler(db)(ctx, callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, none.IsError)
}

func TestSearchHistoryHandler(t *testing.T) {
	db := setupHistoryDB(t)
	ctx := context.Background()

	res := diary.Result{Text: &api.ProcessedResult{DiaryID: "abc123", Compliment: "Rest is productive"}, Errors: []string{}}
	_, err := history.RecordSubmission(ctx, db, "", diary.Submission{Content: "Rainy day at home", Companion: diary.CompanionF}, res)
	require.NoError(t, err)

	found, err := searchHistoryHandler(db)(ctx, callRequest(map[string]any{"query": "rainy productive"}))
	require.NoError(t, err)
	var results []history.MatchedRecord
	require.NoError(t, json.Unmarshal([]byte(resultText(t, found)), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].MatchCount)

	none, err := searchHistoryHandler(db)(ctx, callRequest(map[string]any{"query": "sunny"}))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, none))

	blank, err := searchHistoryHandler(db)(ctx, callRequest(map[string]any{"query": "  "}))
	require.NoError(t, err)
	assert.True(t, blank.IsError)
}

func TestListHistoryHandler_Empty(t *testing.T) {
	db := setupHistoryDB(t)

	res, err := listHistoryHandler(db)(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, res))
}

func TestNewQuokkaMCPServer(t *testing.T) {
	_, err := NewQuokkaMCPServer(nil, nil)
	assert.Error(t, err)

	client := newTestClient(t, &fakeService{})
	srv, err := NewQuokkaMCPServer(client, setupHistoryDB(t))
	require.NoError(t, err)
	srv.RegisterAllTools()
	assert.NotNil(t, srv.MCPRawServer())
	assert.NotNil(t, srv.DB())
	assert.NoError(t, srv.Close())

	noHistory, err := NewQuokkaMCPServer(client, nil)
	require.NoError(t, err)
	noHistory.RegisterAllTools()
	assert.Nil(t, noHistory.DB())
	assert.NoError(t, noHistory.Close())
}
