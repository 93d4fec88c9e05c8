package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ghostline/assert"
	"ghostline/engine"
	"ghostline/provider"
	"ghostline/types"
)

type stubProvider struct {
	text string
}

func (s *stubProvider) GetCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResult, error) {
	if s.text == "" {
		return nil, nil
	}
	return &types.CompletionResult{Text: s.text, ModelID: "stub-model", Provider: "stub"}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }
func (s *stubProvider) DisplayName() string                  { return "Stub" }
func (s *stubProvider) ModelID() string                      { return "stub-model" }

func newTestServer(t *testing.T, completionText string) *Server {
	t.Helper()
	eng, err := engine.New(engine.Config{
		Enabled: true,
		Model:   "stub-model",
		Budget:  types.ContextBudget{EnabledSources: map[types.SourceKind]bool{}},
	}, map[string]provider.Provider{"stub-model": &stubProvider{text: completionText}}, nil)
	assert.NoError(t, err, "engine constructs")
	t.Cleanup(eng.Close)

	srv, err := New(eng, "127.0.0.1:0")
	assert.NoError(t, err, "server constructs")
	return srv
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.app.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "x")

	rec := doJSON(srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code, "health is 200")
}

func TestCompletion_Success(t *testing.T) {
	srv := newTestServer(t, "return nil")

	rec := doJSON(srv, http.MethodPost, "/v1/completion", `{
		"file_path": "a.go",
		"language": "go",
		"prefix": "func f() error {\n\t",
		"suffix": "\n}"
	}`)

	assert.Equal(t, http.StatusOK, rec.Code, "completion is 200")

	var resp struct {
		Completion *struct {
			CompletionID string `json:"completion_id"`
			Text         string `json:"text"`
			Provider     string `json:"provider"`
		} `json:"completion"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "response decodes")
	assert.NotNil(t, resp.Completion, "completion present")
	assert.Equal(t, "return nil", resp.Completion.Text, "completion text")
	assert.True(t, resp.Completion.CompletionID != "", "completion id present")
	assert.Equal(t, "stub", resp.Completion.Provider, "provider tag")
}

func TestCompletion_AbsenceIsNull(t *testing.T) {
	srv := newTestServer(t, "") // stub yields absence

	rec := doJSON(srv, http.MethodPost, "/v1/completion", `{"file_path": "a.go", "prefix": "x := "}`)

	assert.Equal(t, http.StatusOK, rec.Code, "absence is still 200")

	var resp map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "response decodes")
	assert.Equal(t, "null", string(resp["completion"]), "completion is null")
}

func TestCompletion_MissingFilePath(t *testing.T) {
	srv := newTestServer(t, "x")

	rec := doJSON(srv, http.MethodPost, "/v1/completion", `{"prefix": "x := "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code, "file_path is required")
}

func TestAcceptedFlow(t *testing.T) {
	srv := newTestServer(t, "foo(bar)")

	rec := doJSON(srv, http.MethodPost, "/v1/completion", `{"file_path": "a.ts", "prefix": "const x = "}`)
	assert.Equal(t, http.StatusOK, rec.Code, "completion served")

	rec = doJSON(srv, http.MethodPost, "/v1/accepted", `{"file_path": "a.ts", "inserted_text": "foo(bar)"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "accepted is 200")

	var resp map[string]bool
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "response decodes")
	assert.True(t, resp["accepted"], "insertion matched the tracked completion")

	// Stats reflect the whole flow
	rec = doJSON(srv, http.MethodGet, "/stats", "")
	var stats struct {
		TotalRequests       int64 `json:"total_requests"`
		AcceptedCompletions int64 `json:"accepted_completions"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats), "stats decode")
	assert.Equal(t, int64(1), stats.TotalRequests, "one request counted")
	assert.Equal(t, int64(1), stats.AcceptedCompletions, "one acceptance counted")
}

func TestEditedAndVisited(t *testing.T) {
	srv := newTestServer(t, "x")

	rec := doJSON(srv, http.MethodPost, "/v1/edited", `{"file_path": "a.go", "start_line": 1, "end_line": 3, "content": "func f() {}"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, "edited is 204")

	rec = doJSON(srv, http.MethodPost, "/v1/visited", `{"file_path": "b.go", "start_line": 5, "end_line": 9, "content": "func g() {}"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, "visited is 204")
}

func TestStatsReset(t *testing.T) {
	srv := newTestServer(t, "return nil")

	doJSON(srv, http.MethodPost, "/v1/completion", `{"file_path": "a.go", "prefix": "x := "}`)

	rec := doJSON(srv, http.MethodPost, "/v1/stats/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "reset is 204")

	rec = doJSON(srv, http.MethodGet, "/stats", "")
	var stats struct {
		TotalRequests int64 `json:"total_requests"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats), "stats decode")
	assert.Equal(t, int64(0), stats.TotalRequests, "counters zeroed")
}
