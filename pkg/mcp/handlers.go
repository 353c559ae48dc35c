package mcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/unowned-ai/quokka/pkg/api"
	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/history"
)

const defaultHistoryLimit = 20

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// RegisterPingTool registers the liveness tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong_quokka' to check if the Quokka MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_quokka"), nil
}

// submitDiaryResponse is diary.Result plus the history record it was stored as.
type submitDiaryResponse struct {
	diary.Result
	HistoryID string `json:"history_id,omitempty"`
}

// RegisterSubmitDiaryTool registers submit_diary. When historyDB is non-nil
// every submission is recorded.
func RegisterSubmitDiaryTool(s *server.MCPServer, submitter *diary.Submitter, historyDB *sql.DB) {
	submitTool := mcp.NewTool("submit_diary",
		mcp.WithDescription("Submits a diary entry and returns the compliment, image and voice generated for it. Partial failures are listed in 'errors'."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The diary text.")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Companion type: 'F' (feeling-oriented) or 'T' (thinking-oriented).")),
		mcp.WithString("name", mcp.Description("Optional name of the writer, stored with the history record.")),
	)
	s.AddTool(submitTool, submitDiaryHandler(submitter, historyDB))
}

func submitDiaryHandler(submitter *diary.Submitter, historyDB *sql.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := rawStringArg(request, "content")
		if strings.TrimSpace(content) == "" {
			return mcp.NewToolResultError("'content' parameter is required and must be a non-empty string."), nil
		}
		companion, err := diary.ParseCompanion(stringArg(request, "type"))
		if err != nil {
			return mcp.NewToolResultError("'type' parameter must be 'F' or 'T'."), nil
		}

		sub := diary.Submission{Content: content, Companion: companion}
		resp := submitDiaryResponse{Result: submitter.Submit(ctx, sub)}

		if historyDB != nil {
			record, err := history.RecordSubmission(ctx, historyDB, stringArg(request, "name"), sub, resp.Result)
			if err != nil {
				// Recording is best effort.
				log.Warn().Err(err).Msg("failed to record submission")
			} else {
				resp.HistoryID = record.ID.String()
			}
		}

		return jsonResult(resp, "submission result"), nil
	}
}

// RegisterGenerateTools registers generate_text, generate_image and
// generate_voice, one call each against the matching endpoint.
func RegisterGenerateTools(s *server.MCPServer, client *api.Client) {
	textTool := mcp.NewTool("generate_text",
		mcp.WithDescription("Generates the compliment for a diary entry. Returns the envelope with the new diary_id."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The diary text.")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Companion type: 'F' or 'T'.")),
	)
	s.AddTool(textTool, generateTextHandler(client))

	imageTool := mcp.NewTool("generate_image",
		mcp.WithDescription("Generates the image for an existing diary_id."),
		mcp.WithString("diary_id", mcp.Required(), mcp.Description("Identifier returned by generate_text.")),
		mcp.WithString("compliment", mcp.Description("Compliment returned by generate_text.")),
	)
	s.AddTool(imageTool, generateMediaHandler(client, api.EndpointImage))

	voiceTool := mcp.NewTool("generate_voice",
		mcp.WithDescription("Generates the voice message for an existing diary_id."),
		mcp.WithString("diary_id", mcp.Required(), mcp.Description("Identifier returned by generate_text.")),
		mcp.WithString("compliment", mcp.Description("Compliment returned by generate_text.")),
	)
	s.AddTool(voiceTool, generateMediaHandler(client, api.EndpointVoice))
}

func generateTextHandler(client *api.Client) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := rawStringArg(request, "content")
		if strings.TrimSpace(content) == "" {
			return mcp.NewToolResultError("'content' parameter is required and must be a non-empty string."), nil
		}
		companion, err := diary.ParseCompanion(stringArg(request, "type"))
		if err != nil {
			return mcp.NewToolResultError("'type' parameter must be 'F' or 'T'."), nil
		}
		return envelopeResult(client.GenerateText(ctx, content, string(companion))), nil
	}
}

func generateMediaHandler(client *api.Client, endpoint string) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		diaryID := stringArg(request, "diary_id")
		if diaryID == "" {
			return mcp.NewToolResultError("'diary_id' parameter is required and must be a non-empty string."), nil
		}
		media := api.MediaRequest{DiaryID: diaryID, Compliment: rawStringArg(request, "compliment")}
		return envelopeResult(client.Call(ctx, endpoint, media)), nil
	}
}

func envelopeResult(env api.Envelope) *mcp.CallToolResult {
	if !env.Success {
		return mcp.NewToolResultError(env.Error)
	}
	return jsonResult(env, "response")
}

// RegisterListHistoryTool registers list_history.
func RegisterListHistoryTool(s *server.MCPServer, db *sql.DB) {
	listTool := mcp.NewTool("list_history",
		mcp.WithDescription("Lists recorded diary submissions, newest first."),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of records (default %d, 0 for all).", defaultHistoryLimit))),
		mcp.WithBoolean("include_deleted", mcp.Description("Include records marked as deleted.")),
	)
	s.AddTool(listTool, listHistoryHandler(db))
}

func listHistoryHandler(db *sql.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := intArg(request, "limit", defaultHistoryLimit)
		if limit < 0 {
			return mcp.NewToolResultError("'limit' must not be negative."), nil
		}

		records, err := history.ListRecords(ctx, db, limit, boolArg(request, "include_deleted", false))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list history: %v", err)), nil
		}
		if len(records) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(records, "history"), nil
	}
}

// RegisterSearchHistoryTool registers search_history.
func RegisterSearchHistoryTool(s *server.MCPServer, db *sql.DB) {
	searchTool := mcp.NewTool("search_history",
		mcp.WithDescription("Searches recorded diary text and compliments. Records matching more terms rank first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Space-separated search terms.")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of results (default %d, 0 for all).", defaultHistoryLimit))),
	)
	s.AddTool(searchTool, searchHistoryHandler(db))
}

func searchHistoryHandler(db *sql.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		terms := strings.Fields(stringArg(request, "query"))
		if len(terms) == 0 {
			return mcp.NewToolResultError("'query' parameter is required and must contain at least one term."), nil
		}

		results, err := history.SearchRecords(ctx, db, terms, intArg(request, "limit", defaultHistoryLimit))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to search history: %v", err)), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(results, "search results"), nil
	}
}

// RegisterGetHistoryTool registers get_history, which looks a record up by
// its id or by the diary_id the service assigned.
func RegisterGetHistoryTool(s *server.MCPServer, db *sql.DB) {
	getTool := mcp.NewTool("get_history",
		mcp.WithDescription("Returns one recorded submission by record id or diary_id."),
		mcp.WithString("id", mcp.Description("History record UUID.")),
		mcp.WithString("diary_id", mcp.Description("diary_id assigned by the service.")),
	)
	s.AddTool(getTool, getHistoryHandler(db))
}

func getHistoryHandler(db *sql.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idStr := stringArg(request, "id")
		diaryID := stringArg(request, "diary_id")

		var (
			record history.Record
			err    error
		)
		switch {
		case idStr != "":
			id, parseErr := uuid.Parse(idStr)
			if parseErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid 'id' format: %v", parseErr)), nil
			}
			record, err = history.GetRecord(ctx, db, id)
		case diaryID != "":
			record, err = history.GetRecordByDiaryID(ctx, db, diaryID)
		default:
			return mcp.NewToolResultError("Either 'id' or 'diary_id' is required."), nil
		}

		if err != nil {
			if errors.Is(err, history.ErrRecordNotFound) {
				return mcp.NewToolResultError("History record not found."), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get history record: %v", err)), nil
		}
		return jsonResult(record, "history record"), nil
	}
}
