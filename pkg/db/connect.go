package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryDSN = ":memory:"

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true,
}

// OpenDBConnection opens the history database.
// baseDSN is a file path or ":memory:".
// enableWAL sets the journal_mode to WAL if true.
// syncPragma sets the synchronous pragma (OFF, NORMAL, FULL or EXTRA); empty keeps the SQLite default.
func OpenDBConnection(baseDSN string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	params := url.Values{}

	if enableWAL {
		params.Add("_journal_mode", "WAL")
	}

	if syncPragma != "" {
		ucSyncPragma := strings.ToUpper(syncPragma)
		if !validSyncModes[ucSyncPragma] {
			return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", syncPragma)
		}
		params.Add("_synchronous", ucSyncPragma)
	}
	// Foreign keys are per connection, so they go in the DSN rather than a one-off PRAGMA.
	params.Add("_foreign_keys", "on")

	constructedDSN := baseDSN
	if strings.Contains(baseDSN, "?") {
		constructedDSN += "&" + params.Encode()
	} else {
		constructedDSN += "?" + params.Encode()
	}

	db, err := sql.Open("sqlite3", constructedDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", constructedDSN, err)
	}

	// Every connection to ":memory:" is a separate database.
	if baseDSN == memoryDSN {
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", constructedDSN, err)
	}

	return db, nil
}

// Checkpoint flushes the WAL into the main database file. It is a no-op for
// databases not in WAL mode.
func Checkpoint(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}
