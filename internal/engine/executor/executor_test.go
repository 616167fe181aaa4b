package executor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/repourl"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm/mock"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

type fakeProvider struct {
	pr       *provider.PullRequest
	prErr    error
	files    []*provider.PullRequestFile
	filesErr error
	contents map[string]string
	panicOn  string

	mu      sync.Mutex
	prCalls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) ParseRepoPath(repoURL string) (string, string, error) {
	return provider.SplitRepoPath("fake", repoURL)
}

func (p *fakeProvider) GetPullRequest(_ context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	p.mu.Lock()
	p.prCalls++
	p.mu.Unlock()
	if p.prErr != nil {
		return nil, p.prErr
	}
	return p.pr, nil
}

func (p *fakeProvider) ListPullRequestFiles(_ context.Context, owner, repo string, number int) ([]*provider.PullRequestFile, error) {
	if p.filesErr != nil {
		return nil, p.filesErr
	}
	return p.files, nil
}

func (p *fakeProvider) FetchRawContent(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == p.panicOn {
		panic("corrupt raw url")
	}
	content, ok := p.contents[rawURL]
	if !ok {
		return nil, provider.UpstreamError("fake", "failed to fetch file content", 404, fmt.Errorf("not found"))
	}
	return []byte(content), nil
}

type fakeResolver struct {
	prov    *fakeProvider
	parser  *repourl.Parser
	mu      sync.Mutex
	tokens  []string
	failure error
}

func newFakeResolver(p *fakeProvider) *fakeResolver {
	return &fakeResolver{prov: p, parser: repourl.NewParser()}
}

func (r *fakeResolver) Parse(repoURL string) (*repourl.RepoInfo, error) {
	info, err := r.parser.Parse(repoURL)
	if err != nil {
		return nil, errors.ErrInvalidRequest(err.Error())
	}
	return info, nil
}

func (r *fakeResolver) Resolve(repoURL, token string) (*provider.Target, error) {
	if r.failure != nil {
		return nil, r.failure
	}
	info, err := r.Parse(repoURL)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.tokens = append(r.tokens, token)
	r.mu.Unlock()
	return &provider.Target{Provider: r.prov, Info: info}, nil
}

func boolPtr(b bool) *bool { return &b }

func newFiles(names ...string) ([]*provider.PullRequestFile, map[string]string) {
	files := make([]*provider.PullRequestFile, 0, len(names))
	contents := make(map[string]string, len(names))
	for _, n := range names {
		raw := "https://raw.example.com/" + n
		files = append(files, &provider.PullRequestFile{Filename: n, RawURL: raw, Status: "modified"})
		contents[raw] = "// " + n
	}
	return files, contents
}

func TestValidate(t *testing.T) {
	backends := llm.NewBackendsFromClients("mock", mock.New(nil))
	exec := NewExecutor(newFakeResolver(&fakeProvider{}), backends, 2)

	tests := []struct {
		name    string
		req     task.Request
		wantErr bool
	}{
		{name: "pr ok", req: &task.PRAnalysisRequest{RepoURL: "octo/hello", PRNumber: 1}},
		{name: "pr full url ok", req: &task.PRAnalysisRequest{RepoURL: "https://github.com/octo/hello", PRNumber: 1}},
		{name: "nested path", req: &task.PRAnalysisRequest{RepoURL: "octo/hello/extra", PRNumber: 1}, wantErr: true},
		{name: "single segment", req: &task.PRAnalysisRequest{RepoURL: "hello", PRNumber: 1}, wantErr: true},
		{name: "bad pr", req: &task.PRAnalysisRequest{RepoURL: "octo/hello"}, wantErr: true},
		{
			name: "code ok",
			req:  &task.CodeAnalysisRequest{RepoURL: "octo/hello", PRNumber: 2, Model: task.ModelSelector{Backend: "mock", Model: "m"}},
		},
		{
			name:    "unknown backend",
			req:     &task.CodeAnalysisRequest{RepoURL: "octo/hello", PRNumber: 2, Model: task.ModelSelector{Backend: "nope", Model: "m"}},
			wantErr: true,
		},
		{name: "nil", req: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exec.Validate(tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFetchPRMetadata(t *testing.T) {
	prov := &fakeProvider{pr: &provider.PullRequest{
		Number:    12,
		Title:     "Add retries",
		Author:    "octocat",
		State:     "open",
		Mergeable: boolPtr(true),
	}}
	resolver := newFakeResolver(prov)
	exec := NewExecutor(resolver, llm.NewBackendsFromClients(""), 1)

	result, err := exec.FetchPRMetadata(context.Background(), &task.PRAnalysisRequest{
		RepoURL:   "octo/hello",
		PRNumber:  12,
		AuthToken: "ghp_x",
	})
	require.NoError(t, err)
	assert.Equal(t, &task.PRMetadataResult{
		Repo:      "octo/hello",
		PRNumber:  12,
		Title:     "Add retries",
		Author:    "octocat",
		Status:    "open",
		Mergeable: boolPtr(true),
	}, result)
	assert.Equal(t, []string{"ghp_x"}, resolver.tokens)
	assert.Equal(t, 1, prov.prCalls)
}

func TestExecute_PRMetadata(t *testing.T) {
	prov := &fakeProvider{pr: &provider.PullRequest{Title: "T", Author: "a", State: "closed"}}
	exec := NewExecutor(newFakeResolver(prov), llm.NewBackendsFromClients(""), 1)

	out, err := exec.Execute(context.Background(), model.TaskKindPRMetadata, []byte(`{"repo_url":"o/r","pr_number":5}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"repo":"o/r","pr_number":5,"title":"T","author":"a","status":"closed","mergeable":null}`, string(out))
}

func TestExecute_UpstreamFailure(t *testing.T) {
	upstream := provider.UpstreamError("fake", "pull request not found", 404, nil)
	exec := NewExecutor(newFakeResolver(&fakeProvider{prErr: upstream}), llm.NewBackendsFromClients(""), 1)

	_, err := exec.Execute(context.Background(), model.TaskKindPRMetadata, []byte(`{"repo_url":"o/r","pr_number":5}`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamFetch))
}

func TestExecute_BadPayload(t *testing.T) {
	exec := NewExecutor(newFakeResolver(&fakeProvider{}), llm.NewBackendsFromClients(""), 1)

	_, err := exec.Execute(context.Background(), model.TaskKind("other"), []byte(`{}`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestAnalyzeCode_AllFilesSucceed(t *testing.T) {
	files, contents := newFiles("a.go", "b.go", "c.go")
	prov := &fakeProvider{files: files, contents: contents}
	client := mock.New(llm.NewClientConfig("mock"))
	exec := NewExecutor(newFakeResolver(prov), llm.NewBackendsFromClients("mock", client), 2)

	result, err := exec.AnalyzeCode(context.Background(), &task.CodeAnalysisRequest{
		RepoURL:  "octo/hello",
		PRNumber: 3,
		Model:    task.ModelSelector{Backend: "mock", Model: "llama3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "octo/hello", result.RepoURL)
	assert.Equal(t, 3, result.PRNumber)
	require.Len(t, result.Files, 3)
	for i, name := range []string{"a.go", "b.go", "c.go"} {
		assert.Equal(t, name, result.Files[i].Filename(), "order must follow the file listing")
		assert.True(t, result.Files[i].Succeeded())
	}
	assert.Equal(t, 0, result.Failed())

	calls := client.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, "llama3", c.Model)
		assert.Contains(t, c.Prompt, "using the model: llama3.")
	}
}

func TestAnalyzeCode_FailureIsolation(t *testing.T) {
	files, contents := newFiles("ok.go", "missing.go", "prose.go", "analyzer.go", "panic.go")
	delete(contents, "https://raw.example.com/missing.go")
	prov := &fakeProvider{files: files, contents: contents, panicOn: "https://raw.example.com/panic.go"}

	client := mock.New(llm.NewClientConfig("mock")).WithHandler(func(_ context.Context, req *llm.Request) (string, error) {
		switch req.GetMetadata("filename") {
		case "prose.go":
			return "Looks good to me.", nil
		case "analyzer.go":
			return "", stderrors.New("rate limited")
		default:
			return mock.DefaultContent(), nil
		}
	})
	exec := NewExecutor(newFakeResolver(prov), llm.NewBackendsFromClients("mock", client), 3)

	result, err := exec.AnalyzeCode(context.Background(), &task.CodeAnalysisRequest{
		RepoURL:  "octo/hello",
		PRNumber: 9,
		Model:    task.ModelSelector{Backend: "mock", Model: "m"},
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 5)
	assert.Equal(t, 4, result.Failed())

	byName := map[string]task.FileAnalysisResult{}
	for _, f := range result.Files {
		byName[f.Filename()] = f
	}

	assert.True(t, byName["ok.go"].Succeeded())

	msg, failed := byName["missing.go"].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "E4001")

	msg, failed = byName["prose.go"].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "E6002")

	msg, failed = byName["analyzer.go"].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "rate limited")

	msg, failed = byName["panic.go"].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "corrupt raw url")


	data, err := json.Marshal(result.Files[1])
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"analysis"`)
	assert.Contains(t, string(data), `"error"`)
}

func TestAnalyzeCode_ListFailureFailsAttempt(t *testing.T) {
	prov := &fakeProvider{filesErr: provider.UpstreamError("fake", "failed to list files", 502, nil)}
	exec := NewExecutor(newFakeResolver(prov), llm.NewBackendsFromClients("mock", mock.New(nil)), 1)

	_, err := exec.AnalyzeCode(context.Background(), &task.CodeAnalysisRequest{
		RepoURL:  "octo/hello",
		PRNumber: 1,
		Model:    task.ModelSelector{Backend: "mock", Model: "m"},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamFetch))
}

func TestAnalyzeCode_NoFiles(t *testing.T) {
	exec := NewExecutor(newFakeResolver(&fakeProvider{}), llm.NewBackendsFromClients("mock", mock.New(nil)), 1)

	out, err := exec.Execute(context.Background(), model.TaskKindCodeAnalysis,
		[]byte(`{"repo_url":"o/r","pr_number":1,"model_selector":{"backend":"mock","model":"m"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"repo_url":"o/r","pr_number":1,"files":[]}`, string(out))
}

func TestAnalyzeCode_ConcurrencyBound(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = fmt.Sprintf("f%02d.go", i)
	}
	files, contents := newFiles(names...)

	var inFlight, peak atomic.Int32
	client := mock.New(nil).WithHandler(func(_ context.Context, _ *llm.Request) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return "{}", nil
	})
	exec := NewExecutor(newFakeResolver(&fakeProvider{files: files, contents: contents}),
		llm.NewBackendsFromClients("mock", client), 3)

	result, err := exec.AnalyzeCode(context.Background(), &task.CodeAnalysisRequest{
		RepoURL:  "o/r",
		PRNumber: 1,
		Model:    task.ModelSelector{Backend: "mock", Model: "m"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Files, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestAnalyzeCode_ExpiredContext(t *testing.T) {
	files, contents := newFiles("a.go")
	exec := NewExecutor(newFakeResolver(&fakeProvider{files: files, contents: contents}),
		llm.NewBackendsFromClients("mock", mock.New(nil)), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.AnalyzeCode(ctx, &task.CodeAnalysisRequest{
		RepoURL:  "o/r",
		PRNumber: 1,
		Model:    task.ModelSelector{Backend: "mock", Model: "m"},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

func TestNewExecutor_DefaultConcurrency(t *testing.T) {
	exec := NewExecutor(nil, nil, 0)
	assert.Equal(t, DefaultFileConcurrency, exec.fileConcurrency)
}
