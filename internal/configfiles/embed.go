// Package configfiles provides the embedded example configuration used to
// initialize a local config file.
package configfiles

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed config.example.yaml
var configExample []byte

// GetConfigExample returns the example configuration file content
func GetConfigExample() []byte {
	return append([]byte(nil), configExample...)
}

// WriteConfigExample writes the example configuration to path, creating parent
// directories. An existing file is never overwritten.
func WriteConfigExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, configExample, 0644)
}
