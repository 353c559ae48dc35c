package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName    = "quokka"
	historyDBName = "history.db"
)

// GetDefaultHistoryDBPath returns the per-user location of the history database.
func GetDefaultHistoryDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return historyDBName
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName, historyDBName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName, historyDBName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName, historyDBName)
		}
		return filepath.Join(homeDir, ".local", "share", appDirName, historyDBName)
	}
}

// ResolveAndEnsureDBPath expands "~/", makes the path absolute and creates
// its directory. An empty path selects the default location; ":memory:" is
// returned unchanged.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	targetPath := providedPath
	if targetPath == ":memory:" {
		return targetPath, nil
	}
	if targetPath == "" {
		targetPath = GetDefaultHistoryDBPath()
	}

	if strings.HasPrefix(targetPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", targetPath, err)
		}
		targetPath = filepath.Join(homeDir, targetPath[2:])
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}
	targetPath = absPath

	dbDir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory '%s' for database: %w", dbDir, err)
	}

	return targetPath, nil
}
