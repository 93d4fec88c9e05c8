package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ghostline/assert"
)

func TestGenerate_ForcesRawNonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path, "generate path")

		var req GenerateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req), "request decodes")
		assert.True(t, req.Raw, "raw mode forced on")
		assert.False(t, req.Stream, "streaming forced off")

		json.NewEncoder(w).Encode(GenerateResponse{Response: "return nil", Done: true})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	resp, err := c.Generate(context.Background(), &GenerateRequest{
		Model:  "qwen2.5-coder",
		Prompt: "<|fim_prefix|>x<|fim_suffix|><|fim_middle|>",
		Stream: true, // deliberately wrong, client must override
	})

	assert.NoError(t, err, "generate succeeds")
	assert.Equal(t, "return nil", resp.Response, "response text")
}

func TestHasModel_TagTolerance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "qwen2.5-coder:latest"},
				{"name": "codellama:7b-code"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	assert.True(t, c.HasModel(ctx, "qwen2.5-coder"), "bare name matches :latest tag")
	assert.True(t, c.HasModel(ctx, "qwen2.5-coder:latest"), "exact tagged name matches")
	assert.True(t, c.HasModel(ctx, "codellama:7b-code"), "exact non-latest tag matches")
	assert.False(t, c.HasModel(ctx, "codellama"), "bare name does not match a non-latest tag")
	assert.False(t, c.HasModel(ctx, "deepseek-coder"), "absent model")
}

func TestReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	c := NewClient(server.URL)
	assert.True(t, c.Reachable(context.Background()), "running server is reachable")

	server.Close()
	assert.False(t, c.Reachable(context.Background()), "closed server is not reachable")
}
