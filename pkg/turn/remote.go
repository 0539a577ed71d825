package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
)

const remoteLabel = "remote-eou"

// remoteTimeout bounds a single remote inference round trip; a turn decision
// older than this is useless to a live conversation.
const remoteTimeout = 2 * time.Second

// RemoteDetector delegates EOU scoring to an HTTP endpoint, falling back to
// a local detector on any transport or protocol failure. The threshold is
// applied locally, so per-call overrides work regardless of the endpoint.
type RemoteDetector struct {
	base

	endpoint   string
	httpClient *http.Client
	language   string

	stateMu  sync.Mutex
	fallback Detector
	closed   bool
}

// remoteRequest is the payload sent to the endpoint.
type remoteRequest struct {
	Messages []remoteMessage `json:"messages"`
	Language string          `json:"language,omitempty"`
}

type remoteMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// remoteResponse is the payload returned by the endpoint.
type remoteResponse struct {
	Probability float64 `json:"eou_probability"`
	Error       string  `json:"error,omitempty"`
}

// NewRemoteDetector creates a remote turn detector. fallback may be nil, in
// which case remote failures are absorbed into the fail-safe 0.0.
func NewRemoteDetector(endpoint string, fallback Detector, opts ...Option) *RemoteDetector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &RemoteDetector{
		base:       newBase(remoteLabel, o),
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: remoteTimeout},
		language:   o.language,
		fallback:   fallback,
	}
}

func (d *RemoteDetector) checkOpen() (Detector, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed {
		return nil, ErrNotInitialized
	}
	return d.fallback, nil
}

// EOUProbability asks the endpoint to score the conversation. On any
// failure the local fallback scores it instead; without a fallback the
// failure is absorbed into 0.0.
func (d *RemoteDetector) EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	fallback, err := d.checkOpen()
	if err != nil {
		d.emit(err)
		return 0, err
	}

	probability, remoteErr := d.predictRemote(ctx, chatCtx)
	if remoteErr == nil {
		return probability, nil
	}

	if fallback != nil {
		d.logger.Warn("remote turn detection failed, using local fallback",
			slog.String("endpoint", d.endpoint),
			slog.String("error", remoteErr.Error()))
		return fallback.EOUProbability(ctx, chatCtx)
	}
	return d.absorb(remoteErr), nil
}

func (d *RemoteDetector) predictRemote(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	payload := remoteRequest{Language: d.language}
	if chatCtx != nil {
		for _, item := range chatCtx.Items() {
			if msg, ok := item.(*llm.ChatMessage); ok {
				payload.Messages = append(payload.Messages, remoteMessage{
					Role:    string(msg.Role),
					Content: msg.Text(),
				})
			}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return 0, fmt.Errorf("remote error: %s", decoded.Error)
	}
	if decoded.Probability < 0 || decoded.Probability > 1 {
		return 0, fmt.Errorf("invalid probability %f", decoded.Probability)
	}
	return decoded.Probability, nil
}

// DetectEndOfUtterance applies the instance threshold; ties count as end of
// turn.
func (d *RemoteDetector) DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error) {
	return d.DetectWithThreshold(ctx, chatCtx, d.Threshold())
}

// DetectWithThreshold overrides the instance threshold for this call only.
func (d *RemoteDetector) DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error) {
	probability, err := d.EOUProbability(ctx, chatCtx)
	if err != nil {
		return false, err
	}
	return probability >= threshold, nil
}

// SupportsContinuousProbability reports true: the endpoint contract is a
// continuous score and the threshold is applied locally.
func (d *RemoteDetector) SupportsContinuousProbability() bool { return true }

// Close closes the fallback detector, if any. Safe to call more than once.
func (d *RemoteDetector) Close() error {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if d.fallback != nil {
		err = d.fallback.Close()
		d.fallback = nil
	}
	return err
}
