package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/middleware"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
)

// SetupTestRouter creates a Gin router for testing with the error renderer installed.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler(true))
	return r
}

// CreateTestRequest creates an HTTP request for testing.
func CreateTestRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request
	if body != nil {
		var raw []byte
		if s, ok := body.(string); ok {
			raw = []byte(s)
		} else {
			raw, _ = json.Marshal(body)
		}
		req, _ = http.NewRequest(method, url, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	return req
}

// decodeBody unmarshals the recorder body into a map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response should be valid JSON: %v (body=%s)", err, w.Body.String())
	}
	return body
}

// AssertErrorResponse asserts the status and that the body carries an error message.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) map[string]interface{} {
	t.Helper()
	if w.Code != expectedStatus {
		t.Errorf("Status code mismatch: got %d, want %d (body=%s)", w.Code, expectedStatus, w.Body.String())
	}
	body := decodeBody(t, w)
	if msg, _ := body["error"].(string); msg == "" {
		t.Errorf("Response should contain an error message, got %v", body)
	}
	return body
}

// fakeTasks is an in-memory TaskService
type fakeTasks struct {
	mu        sync.Mutex
	submitted []task.Request
	submitErr error
	taskID    string

	waitRec *model.TaskRecord
	waitErr error
	// block makes Wait return only when ctx is done
	block bool

	status    task.Status
	statusErr error
}

func (f *fakeTasks) Submit(_ context.Context, req task.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	f.submitted = append(f.submitted, req)
	if f.taskID == "" {
		return "task-1", nil
	}
	return f.taskID, nil
}

func (f *fakeTasks) Wait(ctx context.Context, _ string) (*model.TaskRecord, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.waitRec, f.waitErr
}

func (f *fakeTasks) Status(_ context.Context, id string) (task.Status, error) {
	if f.statusErr != nil {
		return task.Status{}, f.statusErr
	}
	if f.status.TaskID == "" {
		return task.ProjectStatus(id, nil), nil
	}
	return f.status, nil
}

func (f *fakeTasks) lastSubmitted() task.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submitted) == 0 {
		return nil
	}
	return f.submitted[len(f.submitted)-1]
}

// fakeFetcher returns a fixed metadata result
type fakeFetcher struct {
	meta   *task.PRMetadataResult
	err    error
	gotCtx context.Context
	gotReq *task.PRAnalysisRequest
}

func (f *fakeFetcher) FetchPRMetadata(ctx context.Context, req *task.PRAnalysisRequest) (*task.PRMetadataResult, error) {
	f.gotCtx = ctx
	f.gotReq = req
	return f.meta, f.err
}
