package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	quokka "github.com/unowned-ai/quokka/pkg"
	"github.com/unowned-ai/quokka/pkg/api"
	"github.com/unowned-ai/quokka/pkg/config"
	pkgdb "github.com/unowned-ai/quokka/pkg/db"
	"github.com/unowned-ai/quokka/pkg/diary"
	"github.com/unowned-ai/quokka/pkg/logging"
	"github.com/unowned-ai/quokka/pkg/utils"
)

var (
	cfg *config.Config

	baseURL  string
	timeout  time.Duration
	debug    bool
	logLevel string

	dbPath      string
	walMode     bool
	syncMode    string
	historyMode bool
)

var rootCmd = &cobra.Command{
	Use:   "quokka",
	Short: "Write a diary entry and get a compliment, an image and a voice message back.",
	Long: `quokka talks to the diary generation service. A diary entry is sent to
/generate/text, and the diary_id it returns is used to request an image and a
voice message side by side.

Settings come from QUOKKA_* environment variables and can be overridden with flags.`,
	Version:       fmt.Sprintf("v%s", quokka.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for quokka.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(quokka completion bash)

  Bash (persist):
    $ quokka completion bash > /etc/bash_completion.d/quokka

  Zsh:
    $ quokka completion zsh > "${fpath[1]}/_quokka"

  Fish:
    $ quokka completion fish | source
    $ quokka completion fish > ~/.config/fish/completions/quokka.fish

  PowerShell:
    PS> quokka completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number of quokka",
	Long:              `All software has versions. This is quokka's`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), quokka.Version)
	},
}

// loadConfig reads QUOKKA_* variables, applies explicitly set flags on top,
// validates the result and configures logging.
func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		c.BaseURL = baseURL
	}
	if flags.Changed("timeout") {
		c.Timeout = timeout
	}
	if flags.Changed("debug") {
		c.Debug = debug
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("history") {
		c.HistoryEnabled = historyMode
	}
	if flags.Changed("db") {
		c.HistoryDB = dbPath
	}
	if c.Debug {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logging.Init(c.LogLevel)
	c.LogSummary()
	cfg = c
	return nil
}

func newClient() (*api.Client, error) {
	opts := append(cfg.ClientOptions(), api.WithLogger(log.Logger))
	return api.New(cfg.BaseURL, opts...)
}

func newSubmitter(client *api.Client) *diary.Submitter {
	return diary.NewSubmitter(client, log.Logger.With().Str("component", "submit").Logger())
}

// openDB opens and upgrades the history database at the configured path.
func openDB() (*sql.DB, error) {
	path, err := utils.ResolveAndEnsureDBPath(cfg.HistoryDB)
	if err != nil {
		return nil, err
	}

	dbConn, err := pkgdb.OpenDBConnection(path, walMode, syncMode)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", path, err)
	}

	log.Debug().Str("path", path).Msg("history database ready")
	return dbConn, nil
}

// openHistoryIfEnabled returns nil without error when history is off.
func openHistoryIfEnabled() (*sql.DB, error) {
	if !cfg.HistoryEnabled {
		return nil, nil
	}
	return openDB()
}

func closeDB(dbConn *sql.DB) {
	if dbConn == nil {
		return
	}
	if err := pkgdb.Checkpoint(dbConn); err != nil {
		log.Warn().Err(err).Msg("WAL checkpoint failed during close")
	}
	dbConn.Close()
}

func initCmd() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&baseURL, "base-url", api.DefaultBaseURL, "Generation service base URL (env QUOKKA_BASE_URL)")
	pf.DurationVar(&timeout, "timeout", 0, "Per-request timeout, 0 for none (env QUOKKA_TIMEOUT)")
	pf.BoolVar(&debug, "debug", false, "Log HTTP requests and responses (env QUOKKA_DEBUG)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error (env QUOKKA_LOG_LEVEL)")

	pf.BoolVar(&historyMode, "history", false, "Record submissions in the local history database (env QUOKKA_HISTORY)")
	pf.StringVar(&dbPath, "db", "", "Path to the history database, uses a system-specific default if not provided (env QUOKKA_HISTORY_DB)")
	pf.BoolVar(&walMode, "wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	pf.StringVar(&syncMode, "sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")

	initSubmitCmd()
	initGenerateCmd()
	initHistoryCmd()
	initDBCmd()
	initMCPCmd()

	rootCmd.AddCommand(completionCmd, versionCmd, submitCmd, generateCmd, historyCmd, dbCmd, mcpCmd, tuiCmd)
}

func main() {
	initCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
