// Package check validates the service configuration before startup and
// renders the findings for the terminal.
package check

import (
	"fmt"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
)

// Result represents the outcome of a configuration check
type Result struct {
	// Success indicates whether all required checks passed
	Success bool
	// Errors contains critical errors that prevent server startup
	Errors []string
	// Warnings contains non-critical issues that don't block startup
	Warnings []string
	// Suggestions contains helpful tips for fixing issues
	Suggestions []string
}

func newResult() *Result {
	return &Result{
		Success:     true,
		Errors:      make([]string, 0),
		Warnings:    make([]string, 0),
		Suggestions: make([]string, 0),
	}
}

func (r *Result) addError(msg string) {
	r.Success = false
	r.Errors = append(r.Errors, msg)
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Run checks an already loaded configuration
func Run(cfg *config.Config) *Result {
	result := newResult()
	if cfg == nil {
		result.addError("configuration is missing")
		return result
	}

	validateConfig(cfg, result)
	checkCredentials(cfg, result)
	checkStorePaths(cfg, result)

	if !result.Success {
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Fix the errors above, then run '%s check' again", consts.ServiceName),
		)
	}
	return result
}

// RunFile checks the configuration file at path, then the configuration it
// holds. The loaded config is returned when the file could be parsed.
func RunFile(path string) (*Result, *config.Config) {
	result := newResult()

	file := checkConfigFile(path)
	if file.Error != nil {
		result.addError(file.Error.Error())
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Create %s or point %s at an existing file", path, config.EnvConfigPath),
		)
		return result, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		result.addError(fmt.Sprintf("Invalid %s: %v", path, err))
		return result, nil
	}

	checked := Run(cfg)
	return checked, cfg
}
