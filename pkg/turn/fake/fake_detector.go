// Package fake provides a configurable turn detector for host-pipeline
// tests; no models are downloaded and no inference runs.
package fake

import (
	"context"
	"sync"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
	"github.com/videosdk-community/agents-go/pkg/turn"
)

// Detector returns a fixed probability for every call.
type Detector struct {
	mu          sync.Mutex
	probability float64
	threshold   float64
	closed      bool

	// Calls counts detection invocations, for assertions.
	Calls int
}

// NewDetector creates a fake detector with the given fixed probability and
// the default threshold.
func NewDetector(probability float64) *Detector {
	return &Detector{
		probability: probability,
		threshold:   turn.DefaultThreshold,
	}
}

// SetProbability changes the fixed probability returned by future calls.
func (d *Detector) SetProbability(p float64) {
	d.mu.Lock()
	d.probability = p
	d.mu.Unlock()
}

// EOUProbability returns the configured probability.
func (d *Detector) EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, turn.ErrNotInitialized
	}
	d.Calls++
	return d.probability, nil
}

// DetectEndOfUtterance applies the instance threshold.
func (d *Detector) DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error) {
	return d.DetectWithThreshold(ctx, chatCtx, d.Threshold())
}

// DetectWithThreshold applies the given threshold.
func (d *Detector) DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error) {
	p, err := d.EOUProbability(ctx, chatCtx)
	if err != nil {
		return false, err
	}
	return p >= threshold, nil
}

// Threshold returns the instance threshold.
func (d *Detector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

// SetThreshold replaces the instance threshold.
func (d *Detector) SetThreshold(threshold float64) {
	d.mu.Lock()
	d.threshold = threshold
	d.mu.Unlock()
}

// SupportsContinuousProbability reports true.
func (d *Detector) SupportsContinuousProbability() bool { return true }

// Label identifies the fake.
func (d *Detector) Label() string { return "fake" }

// Close marks the detector closed. Safe to call more than once.
func (d *Detector) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

var _ turn.Detector = (*Detector)(nil)
