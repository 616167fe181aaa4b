// Package main is the entry point for the codereview service.
// codereview analyzes pull requests asynchronously: it fetches PR metadata
// and runs a per-file LLM review, exposing both over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/router"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/check"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/executor"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/notification"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/server"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/store"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/telemetry"

	// Import git provider implementations to register them
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/git/providers"

	// Import analyzer clients to register them
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/llm/groq"
	_ "github.com/Tushar-r12345/ai-code-review-analysis/internal/llm/mock"
)

// Build information - set via ldflags during build
// These variables are linked to consts package for global access
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// init synchronizes build info to consts package for global access
func init() {
	consts.Version = Version
	consts.BuildTime = BuildTime
	consts.GitCommit = GitCommit
}

// configPath holds the --config flag value
var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   consts.ServiceName,
	Short: "Asynchronous pull request analysis service",
	Long: `codereview fetches pull request metadata and runs a per-file LLM code
review in the background. Clients submit tasks over HTTP and poll for results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the codereview server",
	Long: `Start the HTTP API and the background task engine.

The configuration is checked before startup; the server refuses to start
when the check reports errors. Run 'codereview check' to see the full report.`,
	RunE: runServe,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("%s %s\n", consts.ServiceName, Version)
		cmd.Printf("  Build Time: %s\n", BuildTime)
		cmd.Printf("  Git Commit: %s\n", GitCommit)
	},
}

func init() {
	// Disable auto-generated completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		fmt.Sprintf("config file path (default: $%s or %s)", config.EnvConfigPath, config.DefaultConfigPath))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newStatusCmd())

	// Serve command flags
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
	serveCmd.Flags().Bool("debug", false, "enable debug mode")
	serveCmd.Flags().Bool("ephemeral", false, "keep tasks in memory only (overrides store.driver)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := err.(exitError); ok {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError carries a process exit code through cobra without extra output
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// loadConfig loads the resolved config file. When no path was requested and
// the default file is absent, built-in defaults are used.
func loadConfig() (*config.Config, string, error) {
	path := config.ResolvePath(configPath)
	explicit := configPath != "" || os.Getenv(config.EnvConfigPath) != ""

	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && !explicit {
		return config.Default(), "", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, errors.Wrap(errors.ErrCodeConfigParse, "failed to load "+path, err)
	}
	return cfg, path, nil
}

// applyServeFlags overrides config values with command line flags
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		cfg.Store.Driver = config.StoreDriverMemory
	}
}

// runServe starts the codereview server
func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	result := check.Run(cfg)
	if !result.Success {
		check.PrintHeader(os.Stderr, path)
		check.PrintResult(os.Stderr, result)
		return exitError(errors.ExitCodeConfigValidation)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(os.Stderr, "[WARNING] %s\n", warn)
	}

	consts.SetStartedAt(time.Now())

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting codereview",
		zap.String("version", Version),
		zap.String("config", path),
		zap.String("store", cfg.Store.Driver),
	)

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	resultStore, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer resultStore.Close()

	cleanup := store.NewCleanupService(resultStore, cfg.Store.CleanupSchedule)
	if err := cleanup.Start(); err != nil {
		logger.Warn("Failed to start expiry cleanup, expired records are still hidden from reads", zap.Error(err))
	} else {
		defer cleanup.Stop()
	}

	backends, err := llm.NewBackends(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer backends: %w", err)
	}
	defer backends.Close()

	exec := executor.NewExecutor(provider.NewResolver(cfg.Git), backends, cfg.Tasks.FileConcurrency)
	taskEngine := engine.NewEngine(
		engine.OptionsFromConfig(cfg.Tasks),
		resultStore,
		exec,
		notification.NewManager(cfg.Notifications),
	)

	srv := server.New(cfg, router.Deps{
		Tasks:       taskEngine,
		Fetcher:     exec,
		Queue:       taskEngine,
		Metrics:     tel.MetricsHandler(),
		MetricsPath: tel.MetricsPath(),
	}, taskEngine)
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("codereview server is running", zap.String("address", srv.Addr()))

	if err := srv.WaitForShutdown(); err != nil {
		logger.Warn("Shutdown finished with errors", zap.Error(err))
	}

	logger.Info("codereview stopped")
	return nil
}
