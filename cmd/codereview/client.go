package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
)

// envServerAddr overrides the default server address for client commands
const envServerAddr = "CODEREVIEW_SERVER"

const defaultServerAddr = "http://localhost:8000"

// Status polling bounds for status --wait
const (
	pollStartInterval = 500 * time.Millisecond
	pollMaxInterval   = 5 * time.Second
)

// serverAddr returns the --server flag, then $CODEREVIEW_SERVER, then the default
func serverAddr(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		return strings.TrimRight(addr, "/")
	}
	if addr := os.Getenv(envServerAddr); addr != "" {
		return strings.TrimRight(addr, "/")
	}
	return defaultServerAddr
}

// apiClient talks to a running codereview server
type apiClient struct {
	addr string
	http *http.Client
}

func newAPIClient(addr string, timeout time.Duration) *apiClient {
	return &apiClient{addr: addr, http: &http.Client{Timeout: timeout}}
}

// apiError is a non-2xx server response
type apiError struct {
	StatusCode int
	Body       map[string]any
}

func (e *apiError) Error() string {
	if msg, ok := e.Body["error"].(string); ok && msg != "" {
		if id, ok := e.Body["task_id"].(string); ok && id != "" {
			return fmt.Sprintf("server returned %d for task %s: %s", e.StatusCode, id, msg)
		}
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// do sends body as JSON (when non-nil) and decodes a JSON object response
func (c *apiClient) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", c.addr, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("failed to parse response (%d): %s", resp.StatusCode, raw)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: out}
	}
	return out, nil
}

// printJSON pretty-prints v to the command output
func printJSON(cmd *cobra.Command, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(raw))
	return nil
}

// statusColor picks the display color for a public task status
func statusColor(status string) *color.Color {
	switch status {
	case task.StatusCompleted:
		return color.New(color.FgGreen, color.Bold)
	case task.StatusFailed:
		return color.New(color.FgRed, color.Bold)
	case task.StatusUnknown:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func parsePRNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pr number %q: must be a positive integer", arg)
	}
	return n, nil
}

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an analysis task to a running server",
	}
	cmd.PersistentFlags().String("server", "", fmt.Sprintf("server address (default: $%s or %s)", envServerAddr, defaultServerAddr))
	cmd.PersistentFlags().String("token", "", "repository access token sent as github_token")

	prCmd := &cobra.Command{
		Use:   "pr <repo_url> <pr_number>",
		Short: "Fetch pull request metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[1])
			if err != nil {
				return err
			}
			token, _ := cmd.Flags().GetString("token")

			client := newAPIClient(serverAddr(cmd), 30*time.Second)
			out, err := client.do(cmd.Context(), http.MethodPost, "/analyze-pr", map[string]any{
				"repo_url":     args[0],
				"pr_number":    number,
				"github_token": token,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}

	codeCmd := &cobra.Command{
		Use:   "code <repo_url> <pr_number>",
		Short: "Run a per-file LLM review of a pull request",
		Long: `Submit a code analysis task and wait for the server's bounded wait.
If the task does not finish in time, its id is printed so it can be polled
with 'codereview status <task_id> --wait'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[1])
			if err != nil {
				return err
			}
			token, _ := cmd.Flags().GetString("token")
			backend, _ := cmd.Flags().GetString("backend")
			modelName, _ := cmd.Flags().GetString("model")

			client := newAPIClient(serverAddr(cmd), 5*time.Minute)
			out, err := client.do(cmd.Context(), http.MethodPost, "/analyze-code", map[string]any{
				"repo_url":      args[0],
				"pr_number":     number,
				"github_token":  token,
				"model_backend": backend,
				"model_name":    modelName,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	codeCmd.Flags().String("backend", "groq", "analyzer backend name (model_backend)")
	codeCmd.Flags().String("model", "", "model name (model_name)")
	_ = codeCmd.MarkFlagRequired("model")

	cmd.AddCommand(prCmd, codeCmd)
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <task_id>",
		Short: "Show the status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetBool("wait")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if wait && timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			client := newAPIClient(serverAddr(cmd), 10*time.Second)
			st, err := pollStatus(ctx, client, args[0], wait)
			if err != nil {
				return err
			}

			statusColor(st.Status).Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.TaskID, st.Status)
			switch {
			case len(st.Result) > 0:
				var v any
				if err := json.Unmarshal(st.Result, &v); err != nil {
					return err
				}
				return printJSON(cmd, v)
			case st.Error != "":
				cmd.Println(st.Error)
			}
			return nil
		},
	}
	cmd.Flags().String("server", "", fmt.Sprintf("server address (default: $%s or %s)", envServerAddr, defaultServerAddr))
	cmd.Flags().Bool("wait", false, "poll until the task is completed or failed")
	cmd.Flags().Duration("timeout", 10*time.Minute, "give up waiting after this long")
	return cmd
}

// pollStatus fetches the task status, polling with backoff until it is
// terminal when wait is set
func pollStatus(ctx context.Context, client *apiClient, taskID string, wait bool) (*task.Status, error) {
	interval := pollStartInterval
	path := "/status/" + url.PathEscape(taskID)

	for {
		out, err := client.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		raw, _ := json.Marshal(out)
		var st task.Status
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("failed to parse status: %w", err)
		}

		switch st.Status {
		case task.StatusCompleted, task.StatusFailed, task.StatusUnknown:
			return &st, nil
		}
		if !wait {
			return &st, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("task %s still %s: %w", taskID, st.Status, ctx.Err())
		case <-time.After(interval):
		}
		if interval < pollMaxInterval {
			interval = min(interval*3/2, pollMaxInterval)
		}
	}
}
