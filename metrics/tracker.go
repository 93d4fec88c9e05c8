package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"ghostline/logger"
)

const (
	EventGenerated = "completion_generated"
	EventAccepted  = "completion_accepted"
)

const sendTimeout = 3 * time.Second

// Event is one telemetry record. Latency is only meaningful for generated
// events.
type Event struct {
	EventType    string `json:"event_type"`
	CompletionID string `json:"completion_id"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	Language     string `json:"language"`
	FilePath     string `json:"file_path"`
	LatencyMs    int64  `json:"latency_ms,omitempty"`
	LineCount    int    `json:"line_count"`
	CharCount    int    `json:"char_count"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	DeviceID     string `json:"device_id"`
}

// Tracker emits telemetry events asynchronously. A send never blocks the
// completion path and a telemetry failure never fails a completion.
type Tracker struct {
	endpoint   string
	apiKey     string
	deviceID   string
	httpClient *http.Client
	authorized func() bool
}

// NewTracker creates a tracker. An empty endpoint disables emission; the
// authorized hook (may be nil) gates sends on authentication state.
func NewTracker(endpoint, apiKey, deviceID string, authorized func() bool) *Tracker {
	return &Tracker{
		endpoint:   endpoint,
		apiKey:     apiKey,
		deviceID:   deviceID,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		authorized: authorized,
	}
}

// TrackGenerated emits a request-generated event.
func (t *Tracker) TrackGenerated(ev *Event) {
	ev.EventType = EventGenerated
	t.send(ev)
}

// TrackAccepted emits a request-accepted event. Latency carries no meaning
// here and is cleared.
func (t *Tracker) TrackAccepted(ev *Event) {
	ev.EventType = EventAccepted
	ev.LatencyMs = 0
	t.send(ev)
}

func (t *Tracker) send(ev *Event) {
	if t.endpoint == "" {
		return
	}
	if t.authorized != nil && !t.authorized() {
		logger.Debug("metrics: not authenticated, dropping %s", ev.EventType)
		return
	}
	ev.DeviceID = t.deviceID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		body, err := json.Marshal(ev)
		if err != nil {
			logger.Debug("metrics: marshal error: %v", err)
			return
		}

		// Compress with brotli (quality 1 for speed)
		var compressed bytes.Buffer
		w := brotli.NewWriterLevel(&compressed, 1)
		if _, err := w.Write(body); err != nil {
			logger.Debug("metrics: compress error: %v", err)
			return
		}
		if err := w.Close(); err != nil {
			logger.Debug("metrics: compress error: %v", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, &compressed)
		if err != nil {
			logger.Debug("metrics: create request error: %v", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Content-Encoding", "br")
		if t.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
		}

		resp, err := t.httpClient.Do(httpReq)
		if err != nil {
			logger.Debug("metrics: send error: %v", err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			logger.Debug("metrics: server returned %d for %s", resp.StatusCode, ev.EventType)
		} else {
			logger.Debug("metrics: sent %s (id=%s)", ev.EventType, ev.CompletionID)
		}
	}()
}
