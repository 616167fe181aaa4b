package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
)

func TestHealth(t *testing.T) {
	r := SetupTestRouter()
	r.GET("/health", Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, CreateTestRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, consts.Version, body["version"])
	assert.NotEmpty(t, body["uptime"])
}
