package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/check"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/configfiles"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// checkCmd validates the configuration without starting the server
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file and print a report.

With --init, a missing config file is first created from the built-in example:
  codereview check --init`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("init", false, "create the config file from the example when it is missing")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := config.ResolvePath(configPath)
	out := cmd.OutOrStdout()

	if initFile, _ := cmd.Flags().GetBool("init"); initFile {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := configfiles.WriteConfigExample(path); err != nil {
				return err
			}
			cmd.Printf("Created %s from the example configuration\n\n", path)
		}
	}

	check.PrintHeader(out, path)
	result, _ := check.RunFile(path)
	check.PrintResult(out, result)

	if !result.Success {
		return exitError(errors.ExitCodeConfigValidation)
	}
	return nil
}
