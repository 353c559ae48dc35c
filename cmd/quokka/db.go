package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgdb "github.com/unowned-ai/quokka/pkg/db"
	"github.com/unowned-ai/quokka/pkg/utils"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the quokka history database",
	Long:  `Provides commands for managing the local SQLite history database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the history database schema to the latest version",
	Long: `Opens the SQLite database at --db (or QUOKKA_HISTORY_DB, or the system default) and
brings the historydb component up to the current schema version. A missing database
is created and initialized.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(cfg.HistoryDB)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Upgrading historydb component in database at: %s (WAL: %t, Sync: %s)\n", path, walMode, syncMode)

		dbConn, err := pkgdb.OpenDBConnection(path, walMode, syncMode)
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		if err := pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion); err != nil {
			return err
		}

		version, err := pkgdb.GetComponentSchemaVersion(dbConn, pkgdb.HistoryDBComponent)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "historydb is at schema version %d\n", version)
		return nil
	},
}

func initDBCmd() {
	dbCmd.AddCommand(dbUpgradeCmd)
}
