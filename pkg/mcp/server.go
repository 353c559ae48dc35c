package mcp

import (
	"database/sql"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	quokka "github.com/unowned-ai/quokka/pkg"
	"github.com/unowned-ai/quokka/pkg/api"
	pkgdb "github.com/unowned-ai/quokka/pkg/db"
	"github.com/unowned-ai/quokka/pkg/diary"
)

type QuokkaMCPServer struct {
	mcpServer *server.MCPServer
	client    *api.Client
	submitter *diary.Submitter
	db        *sql.DB
}

// NewQuokkaMCPServer wraps an mcp-go server around client. historyDB may be
// nil, in which case submissions are not recorded and the history tools are
// not offered.
func NewQuokkaMCPServer(client *api.Client, historyDB *sql.DB) (*QuokkaMCPServer, error) {
	if client == nil {
		return nil, errors.New("api client is required")
	}

	s := server.NewMCPServer(
		"Quokka MCP Server",
		quokka.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	return &QuokkaMCPServer{
		mcpServer: s,
		client:    client,
		submitter: diary.NewSubmitter(client, log.Logger.With().Str("component", "mcp").Logger()),
		db:        historyDB,
	}, nil
}

// RegisterAllTools registers every tool the server's configuration supports.
func (s *QuokkaMCPServer) RegisterAllTools() {
	RegisterPingTool(s.mcpServer)
	RegisterSubmitDiaryTool(s.mcpServer, s.submitter, s.db)
	RegisterGenerateTools(s.mcpServer, s.client)
	if s.db != nil {
		RegisterListHistoryTool(s.mcpServer, s.db)
		RegisterSearchHistoryTool(s.mcpServer, s.db)
		RegisterGetHistoryTool(s.mcpServer, s.db)
	}
}

// Start runs the stdio event loop. Register tools beforehand.
func (s *QuokkaMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// DB returns the history database, or nil when history is disabled.
func (s *QuokkaMCPServer) DB() *sql.DB {
	return s.db
}

// MCPRawServer exposes the raw mcp-go server.
func (s *QuokkaMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close checkpoints and closes the history database, if any.
func (s *QuokkaMCPServer) Close() error {
	if s.db == nil {
		return nil
	}
	if err := pkgdb.Checkpoint(s.db); err != nil {
		log.Warn().Err(err).Msg("WAL checkpoint failed during close")
	}
	return s.db.Close()
}
