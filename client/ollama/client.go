package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ghostline/logger"
)

// ProbeTimeout bounds each readiness probe individually.
const ProbeTimeout = 2 * time.Second

// GenerateRequest is the Ollama /api/generate request payload. Raw mode is
// always used so FIM sentinel tokens reach the model untouched.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Raw     bool            `json:"raw"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions carries the sampling parameters Ollama nests under options.
type GenerateOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

// GenerateResponse is the non-streaming /api/generate response.
type GenerateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	DoneReson string `json:"done_reason"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client talks to a local Ollama server.
type Client struct {
	HTTPClient *http.Client
	URL        string
}

// NewClient creates a client for the given base URL (e.g. "http://localhost:11434").
func NewClient(url string) *Client {
	return &Client{
		HTTPClient: &http.Client{},
		URL:        strings.TrimSuffix(url, "/"),
	}
}

// Generate sends a non-streaming generate request.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	defer logger.Trace("ollama.Generate")()

	req.Stream = false
	req.Raw = true

	var reqBodyBuf bytes.Buffer
	encoder := json.NewEncoder(&reqBodyBuf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL+"/api/generate", &reqBodyBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &genResp, nil
}

// Reachable reports whether the Ollama server answers at all.
func (c *Client) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.URL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}

// HasModel reports whether the named model is present locally. Tag suffixes
// are ignored when the configured name carries none.
func (c *Client) HasModel(ctx context.Context, model string) bool {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.URL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		logger.Debug("ollama: failed to decode tags: %v", err)
		return false
	}

	for _, m := range tags.Models {
		if m.Name == model {
			return true
		}
		if !strings.Contains(model, ":") && strings.TrimSuffix(m.Name, ":latest") == model {
			return true
		}
	}
	return false
}
