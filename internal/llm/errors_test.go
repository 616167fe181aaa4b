package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError("groq", "complete", "503", nil)))
	assert.False(t, IsRetryable(NewClientError("groq", "complete", "400", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))

	wrapped := apperrors.Wrap(apperrors.ErrCodeAnalyzer, "failed", NewRetryableError("groq", "complete", "429", nil))
	assert.True(t, IsRetryable(wrapped))
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503} {
		assert.True(t, IsRetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{400, 401, 403, 404, 422} {
		assert.False(t, IsRetryableStatus(code), "status %d", code)
	}
}

func TestAnalyzerError(t *testing.T) {
	assert.NoError(t, AnalyzerError(nil))

	err := AnalyzerError(NewClientError("groq", "complete", "bad request", nil).WithStatus(400))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAnalyzer, appErr.Code)
	assert.Equal(t, map[string]int{"status_code": 400}, appErr.Details)

	transport := AnalyzerError(errors.New("dial tcp: refused"))
	appErr, ok = apperrors.AsAppError(transport)
	require.True(t, ok)
	assert.Nil(t, appErr.Details)

	parseErr := apperrors.New(apperrors.ErrCodeParse, "no json")
	assert.Same(t, parseErr, AnalyzerError(parseErr))
}
