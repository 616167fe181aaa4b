package gitea

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/git/provider"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, provider.Provider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(&provider.ProviderOptions{Token: "test-token", BaseURL: srv.URL})
	require.NoError(t, err)
	return srv, p
}

func TestNewProvider_DefaultURL(t *testing.T) {
	prov, err := NewProvider(&provider.ProviderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gitea", prov.Name())
	assert.Equal(t, defaultGiteaURL, prov.(*GiteaProvider).baseURL)
}

func TestParseRepoPath(t *testing.T) {
	p := &GiteaProvider{}

	tests := []struct {
		name      string
		repoURL   string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{name: "simple owner/repo format", repoURL: "owner/repo", wantOwner: "owner", wantRepo: "repo"},
		{name: "full HTTPS URL", repoURL: "https://gitea.com/owner/repo", wantOwner: "owner", wantRepo: "repo"},
		{name: "full HTTP URL", repoURL: "http://gitea.example.com/owner/repo", wantOwner: "owner", wantRepo: "repo"},
		{name: "git@ format", repoURL: "git@gitea.com:owner/repo.git", wantOwner: "owner", wantRepo: "repo"},
		{name: "URL with extra path", repoURL: "https://gitea.com/owner/repo/pulls/123", wantErr: true},
		{name: "empty URL", repoURL: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := p.ParseRepoPath(tt.repoURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestGetPullRequest(t *testing.T) {
	_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/repos/acme/widgets/pulls/42", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"number": 42,
			"title": "Fix bug",
			"state": "open",
			"mergeable": false,
			"user": {"login": "alice"},
			"head": {"ref": "fix", "sha": "abc"},
			"base": {"ref": "main"},
			"merge_base": "def"
		}`))
	})

	pr, err := p.GetPullRequest(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, "Fix bug", pr.Title)
	assert.Equal(t, "alice", pr.Author)
	assert.Equal(t, "open", pr.State)
	assert.Equal(t, "abc", pr.HeadSHA)
	assert.Equal(t, "def", pr.BaseSHA)
	require.NotNil(t, pr.Mergeable)
	assert.False(t, *pr.Mergeable)
}

func TestGetPullRequest_Error(t *testing.T) {
	_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"forbidden"}`))
	})

	_, err := p.GetPullRequest(context.Background(), "acme", "widgets", 42)
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstreamFetch, appErr.Code)
	assert.Equal(t, map[string]int{"status_code": 403}, appErr.Details)
}

func TestListPullRequestFiles(t *testing.T) {
	_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/repos/acme/widgets/pulls/42/files", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"filename": "main.go", "status": "changed", "raw_url": "https://gitea.com/acme/widgets/raw/commit/abc/main.go", "additions": 4, "deletions": 1},
			{"filename": "go.mod", "status": "added", "raw_url": "https://gitea.com/acme/widgets/raw/commit/abc/go.mod"}
		]`))
	})

	files, err := p.ListPullRequestFiles(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "main.go", files[0].Filename)
	assert.Equal(t, 4, files[0].Additions)
	assert.Equal(t, "go.mod", files[1].Filename)
	assert.Equal(t, "https://gitea.com/acme/widgets/raw/commit/abc/go.mod", files[1].RawURL)
}

func TestFetchRawContent(t *testing.T) {
	srv, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("module example"))
	})

	body, err := p.FetchRawContent(context.Background(), srv.URL+"/acme/widgets/raw/commit/abc/go.mod")
	require.NoError(t, err)
	assert.Equal(t, "module example", string(body))
}
