package check

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
)

// validConfig returns a default config with every warning source silenced
func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "tasks.db")
	cfg.Git.Providers[0].Token = "ghp_test"
	b := cfg.LLM.Backends["groq"]
	b.APIKey = "gsk_test"
	cfg.LLM.Backends["groq"] = b
	return cfg
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestRun_ValidConfig(t *testing.T) {
	result := Run(validConfig(t))

	if !result.Success {
		t.Fatalf("Run() Success = false, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Run() Warnings = %v, want none", result.Warnings)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("Run() Suggestions = %v, want none", result.Suggestions)
	}
}

func TestRun_NilConfig(t *testing.T) {
	result := Run(nil)
	if result.Success {
		t.Error("Run(nil) should fail")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "bad port",
			mutate:  func(c *config.Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "no workers",
			mutate:  func(c *config.Config) { c.Tasks.Workers = 0 },
			wantSub: "tasks.workers",
		},
		{
			name:    "unknown store driver",
			mutate:  func(c *config.Config) { c.Store.Driver = "mongo" },
			wantSub: "store.driver",
		},
		{
			name: "unknown backend type",
			mutate: func(c *config.Config) {
				c.LLM.Backends["x"] = config.BackendConfig{Type: "nope"}
			},
			wantSub: "llm.backends.x.type",
		},
		{
			name: "unknown provider type",
			mutate: func(c *config.Config) {
				c.Git.Providers = append(c.Git.Providers, config.ProviderConfig{Type: "bitbucket", URL: "https://bb.example", Token: "t"})
			},
			wantSub: "git.providers[1].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			result := Run(cfg)
			if result.Success {
				t.Fatal("Run() Success = true, want false")
			}
			if !containsSubstring(result.Errors, tt.wantSub) {
				t.Errorf("Run() Errors = %v, want one mentioning %q", result.Errors, tt.wantSub)
			}
			if len(result.Suggestions) == 0 {
				t.Error("Run() should suggest a fix when errors are present")
			}
		})
	}
}

func TestRun_Warnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.Git.Providers[0].Token = ""
	cfg.Notifications.Channel = config.NotificationChannelWebhook
	cfg.Notifications.Webhook.URL = "https://hooks.example.com/x"
	cfg.Notifications.Events = []config.NotificationEvent{config.NotificationEventTaskFailed}

	result := Run(cfg)
	if !result.Success {
		t.Fatalf("Run() Success = false, errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "GitHub") {
		t.Errorf("Warnings = %v, want missing GitHub token warning", result.Warnings)
	}
	if !containsSubstring(result.Warnings, "unsigned") {
		t.Errorf("Warnings = %v, want unsigned webhook warning", result.Warnings)
	}
}

func TestCheckStorePaths(t *testing.T) {
	t.Run("missing directory warns", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "missing", "tasks.db")

		result := newResult()
		checkStorePaths(cfg, result)
		if !result.Success || len(result.Warnings) != 1 {
			t.Errorf("got success=%v warnings=%v, want one warning", result.Success, result.Warnings)
		}
	})

	t.Run("file in place of directory fails", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := validConfig(t)
		cfg.Store.SQLite.Path = filepath.Join(blocker, "tasks.db")

		result := newResult()
		checkStorePaths(cfg, result)
		if result.Success {
			t.Error("checkStorePaths() should fail when the directory is a file")
		}
	})

	t.Run("other drivers skipped", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Store.Driver = config.StoreDriverMemory
		cfg.Store.SQLite.Path = "/nonexistent/dir/tasks.db"

		result := newResult()
		checkStorePaths(cfg, result)
		if len(result.Warnings) != 0 || len(result.Errors) != 0 {
			t.Errorf("unexpected findings: %+v", result)
		}
	})
}

func TestRunFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		result, cfg := RunFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if result.Success || cfg != nil {
			t.Fatalf("RunFile() = %+v, %v; want failure", result, cfg)
		}
		if !containsSubstring(result.Errors, "not found") {
			t.Errorf("Errors = %v", result.Errors)
		}
		if !containsSubstring(result.Suggestions, config.EnvConfigPath) {
			t.Errorf("Suggestions = %v", result.Suggestions)
		}
	})

	t.Run("directory", func(t *testing.T) {
		result, _ := RunFile(t.TempDir())
		if result.Success {
			t.Error("RunFile() on a directory should fail")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
			t.Fatal(err)
		}
		result, cfg := RunFile(path)
		if result.Success || cfg != nil {
			t.Errorf("RunFile() should fail on malformed yaml")
		}
	})

	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := "server:\n  port: 9090\nstore:\n  sqlite:\n    path: " + filepath.Join(dir, "tasks.db") + "\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		result, cfg := RunFile(path)
		if !result.Success {
			t.Fatalf("RunFile() errors: %v", result.Errors)
		}
		if cfg == nil || cfg.Server.Port != 9090 {
			t.Errorf("RunFile() config = %+v, want port 9090", cfg)
		}
	})
}
