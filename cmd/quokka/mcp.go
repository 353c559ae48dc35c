package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/unowned-ai/quokka/pkg/mcp"
)

var metricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Quokka MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes diary submission and
the single generation endpoints as MCP tools via STDIO.

With --history (or QUOKKA_HISTORY=true) every submission is recorded and the
list_history, search_history and get_history tools are registered as well.

With --metrics-addr the client request counters are served in Prometheus format
at /metrics on that address.

Example:
  quokka mcp --base-url https://abc.execute-api.us-east-1.amazonaws.com/Prod
  quokka mcp --history --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		historyDB, err := openHistoryIfEnabled()
		if err != nil {
			return err
		}

		srv, err := mcp.NewQuokkaMCPServer(client, historyDB)
		if err != nil {
			closeDB(historyDB)
			return err
		}
		defer srv.Close()

		srv.RegisterAllTools()

		if metricsAddr != "" {
			metricsSrv := startMetricsServer(metricsAddr)
			defer metricsSrv.Close()
		}

		// Logs go to stderr so we don't contaminate the JSON-RPC stream on stdout.
		log.Info().
			Str("base_url", client.BaseURL()).
			Bool("history", historyDB != nil).
			Msg("Quokka MCP server started, listening for MCP JSON-RPC on STDIN/STDOUT")

		return srv.Start()
	},
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics at /metrics")
	return metricsSrv
}

func initMCPCmd() {
	mcpCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled if empty)")
}
