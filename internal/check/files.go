package check

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
)

// FileCheckResult represents the result of a file check
type FileCheckResult struct {
	Path   string
	Exists bool
	Error  error
}

// checkConfigFile checks that path exists and is a regular file
func checkConfigFile(path string) FileCheckResult {
	result := FileCheckResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Error = fmt.Errorf("configuration file not found: %s", path)
		} else {
			result.Error = fmt.Errorf("cannot access %s: %w", path, err)
		}
		return result
	}
	result.Exists = true

	if info.IsDir() {
		result.Error = fmt.Errorf("%s is a directory, not a configuration file", path)
	}
	return result
}

// checkStorePaths checks the sqlite database location
func checkStorePaths(cfg *config.Config, result *Result) {
	if cfg.Store.Driver != config.StoreDriverSQLite || cfg.Store.SQLite.Path == "" {
		return
	}

	dir := filepath.Dir(cfg.Store.SQLite.Path)
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		result.addWarning(fmt.Sprintf("Database directory %s does not exist and will be created on startup", dir))
	case err != nil:
		result.addError(fmt.Sprintf("Cannot access database directory %s: %v", dir, err))
	case !info.IsDir():
		result.addError(fmt.Sprintf("Database directory %s is not a directory", dir))
	}
}
