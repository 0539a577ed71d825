// Package turn implements end-of-utterance (EOU) detection: given the
// running chat context, decide whether the user has finished their
// conversational turn. Three local ONNX detector variants are provided
// (TurnSense, the binary turn-detection-v1 classifier, and Namo v1) plus a
// remote-HTTP detector with local fallback.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
)

// DefaultThreshold is the EOU probability threshold applied when the caller
// does not supply one.
const DefaultThreshold = 0.7

var (
	// ErrNotInitialized is returned by detection calls made before the
	// detector finished construction or after Close.
	ErrNotInitialized = errors.New("turn: detector not initialized")

	// ErrUnknownModel is returned by the factory for an unrecognized model
	// selector.
	ErrUnknownModel = errors.New("turn: unknown model")

	// ErrInference classifies recoverable per-call failures. Detection
	// methods absorb these into the fail-safe output (probability 0.0,
	// decision false) and report them through the error handler; errors.Is
	// against this sentinel identifies them there.
	ErrInference = errors.New("turn: inference failed")
)

// ErrorHandler receives non-fatal per-call failures so a host can log them
// without crashing a live conversation. Handlers are invoked synchronously
// from the goroutine running the detection call and must not block.
type ErrorHandler func(error)

// Detector decides whether the most recent user utterance ends a turn.
//
// Detection never fails the host pipeline: per-call inference errors are
// absorbed into probability 0.0 / decision false (prefer waiting over
// cutting a user off) and surfaced through the error handler. The only
// errors detection methods return are lifecycle violations
// (ErrNotInitialized).
type Detector interface {
	// EOUProbability scores the last user utterance in the context.
	// Variants without continuous probability return exactly 0.0 or 1.0.
	EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error)

	// DetectEndOfUtterance applies the instance threshold to the
	// probability. Ties count as end of turn.
	DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error)

	// DetectWithThreshold overrides the instance threshold for this call
	// only. Variants without continuous probability ignore the override and
	// return the classifier's hard decision; check
	// SupportsContinuousProbability before relying on it.
	DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error)

	// Threshold returns the instance threshold.
	Threshold() float64

	// SetThreshold replaces the instance threshold.
	SetThreshold(threshold float64)

	// SupportsContinuousProbability reports whether EOUProbability yields a
	// continuous score the threshold can act on.
	SupportsContinuousProbability() bool

	// Label identifies the detector variant.
	Label() string

	// Close releases the tokenizer and inference session. Idempotent; the
	// detector is terminal afterwards and detection calls return
	// ErrNotInitialized.
	Close() error
}

// base carries the state shared by all detector variants.
type base struct {
	label     string
	logger    *slog.Logger
	onError   ErrorHandler
	mu        sync.Mutex
	threshold float64
}

func newBase(label string, o *options) base {
	return base{
		label:     label,
		logger:    o.logger,
		onError:   o.onError,
		threshold: o.threshold,
	}
}

// Threshold returns the instance threshold.
func (b *base) Threshold() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.threshold
}

// SetThreshold replaces the instance threshold.
func (b *base) SetThreshold(threshold float64) {
	b.mu.Lock()
	b.threshold = threshold
	b.mu.Unlock()
}

// Label identifies the detector variant.
func (b *base) Label() string {
	return b.label
}

// emit reports a non-fatal failure through the error handler, if any.
func (b *base) emit(err error) {
	if b.onError != nil {
		b.onError(err)
	}
}

// absorb converts a per-call failure into the fail-safe probability: the
// error is logged, wrapped as ErrInference and emitted, and 0.0 is returned
// so the caller treats the utterance as still in progress.
func (b *base) absorb(err error) float64 {
	b.logger.Error("turn detection inference failed",
		slog.String("detector", b.label),
		slog.String("error", err.Error()))
	b.emit(fmt.Errorf("%w: %v", ErrInference, err))
	return 0
}

// options collects construction-time settings shared by all variants.
type options struct {
	threshold float64
	language  string
	modelPath string
	logger    *slog.Logger
	onError   ErrorHandler
}

// Option configures a detector at construction time.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
}

// WithThreshold sets the instance EOU probability threshold. Valid values
// are in (0, 1]; the default is DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(o *options) { o.threshold = threshold }
}

// WithLanguage selects a single-language model family (ISO 639-1 code).
// Only the Namo variant consults it; when empty the multilingual model is
// loaded.
func WithLanguage(language string) Option {
	return func(o *options) { o.language = language }
}

// WithModelPath overrides the local model cache directory.
func WithModelPath(path string) Option {
	return func(o *options) { o.modelPath = path }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithErrorHandler registers the non-fatal error callback.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(o *options) { o.onError = handler }
}
