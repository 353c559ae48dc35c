package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// TargetSchemaVersion is the highest historydb schema version this build understands.
	TargetSchemaVersion int64 = 1
	// HistoryDBComponent names the submission history component in quokka_versions.
	HistoryDBComponent = "historydb"
)

// GetComponentSchemaVersion returns 0 when the component or the versions table does not exist yet.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM quokka_versions WHERE component = ?;`

	var version int64
	err := db.QueryRow(query, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "quokka_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates the historydb tables and records schemaVersionToSet.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	if _, err := db.Exec(SchemaV1); err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO quokka_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	if _, err := db.Exec(insertVersionSQL, HistoryDBComponent, schemaVersionToSet); err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", HistoryDBComponent, schemaVersionToSet, err)
	}

	log.Debug().
		Str("component", HistoryDBComponent).
		Int64("version", schemaVersionToSet).
		Msg("schema initialized")
	return nil
}

// UpgradeDB brings the historydb component to appTargetSchemaVersion.
// dbIdentifierForLog is only used in messages.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64) error {
	currentDBVersion, err := GetComponentSchemaVersion(db, HistoryDBComponent)
	if err != nil {
		return err
	}

	logger := log.With().
		Str("component", HistoryDBComponent).
		Str("db", dbIdentifierForLog).
		Logger()

	switch {
	case currentDBVersion == 0:
		logger.Info().Int64("target_version", appTargetSchemaVersion).Msg("initializing history database")
		if err := InitializeSchema(db, appTargetSchemaVersion); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", HistoryDBComponent, dbIdentifierForLog, err)
		}
		return nil
	case currentDBVersion == appTargetSchemaVersion:
		logger.Debug().Int64("version", currentDBVersion).Msg("history database is up to date")
		return nil
	case currentDBVersion < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", HistoryDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", HistoryDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}
