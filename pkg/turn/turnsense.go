package turn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
	"github.com/videosdk-community/agents-go/pkg/hub"
	"github.com/videosdk-community/agents-go/pkg/turn/internal"
)

const turnSenseLabel = "turnsense"

// turnSenseEmptyInput is what the distilled model was trained to see for an
// empty utterance; it is not a bare empty string like the other variants.
const turnSenseEmptyInput = "<|user|>  <|im_end|>"

// TurnSenseDetector is the distilled single-sentence EOU classifier
// (SmolLM2-135M based). It scores a fixed 256-token window: input is padded
// to that length, longer utterances are truncated. The model head emits
// probabilities directly, so no softmax is applied.
type TurnSenseDetector struct {
	base

	stateMu sync.Mutex
	enc     textEncoder
	runner  inferenceRunner
	closed  bool
}

// NewTurnSenseDetector downloads the TurnSense artifacts on a cache miss and
// builds the tokenizer and inference session. Construction blocks on network
// and filesystem I/O so the first detection call never hits a cold cache;
// any failure here is fatal and no detector is returned.
func NewTurnSenseDetector(ctx context.Context, opts ...Option) (*TurnSenseDetector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	model := internal.TurnSenseModel
	dl := hub.NewDownloader(hub.WithLogger(o.logger))
	if err := ensureModelFiles(ctx, dl, o.modelPath, model); err != nil {
		return nil, fmt.Errorf("turn: initialize turnsense: %w", err)
	}

	enc, err := newHFEncoder(internal.ModelFilePath(o.modelPath, model, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize turnsense: %w", err)
	}

	runner, err := newORTRunner(internal.ModelFilePath(o.modelPath, model, model.ModelFile))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize turnsense: %w", err)
	}

	o.logger.Info("turn detector ready",
		slog.String("model", model.Name),
		slog.String("repo", model.Repo))

	return &TurnSenseDetector{
		base:   newBase(turnSenseLabel, o),
		enc:    enc,
		runner: runner,
	}, nil
}

// formatTurnSenseInput applies the chat template the model was trained on.
func formatTurnSenseInput(text string) string {
	if text == "" {
		return turnSenseEmptyInput
	}
	return fmt.Sprintf("<|user|> %s <|im_end|>", text)
}

func (d *TurnSenseDetector) handles() (textEncoder, inferenceRunner, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed || d.enc == nil || d.runner == nil {
		return nil, nil, ErrNotInitialized
	}
	return d.enc, d.runner, nil
}

// EOUProbability scores the last user utterance. Tokenization and inference
// failures are absorbed: the error handler is notified and 0.0 is returned
// so the caller keeps listening.
func (d *TurnSenseDetector) EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	enc, runner, err := d.handles()
	if err != nil {
		d.emit(err)
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	text := formatTurnSenseInput(lastUserText(chatCtx))

	ids, mask, _, err := enc.encode(text, internal.TurnSenseModel.MaxSeqLen)
	if err != nil {
		return d.absorb(err), nil
	}
	ids, mask, _ = padTo(ids, mask, nil, internal.TurnSenseModel.MaxSeqLen)

	out, err := runner.run(map[string][]int64{
		"input_ids":      ids,
		"attention_mask": mask,
	}, internal.TurnSenseModel.MaxSeqLen)
	if err != nil {
		return d.absorb(err), nil
	}
	if len(out) < 2 {
		return d.absorb(fmt.Errorf("unexpected output size %d", len(out))), nil
	}

	// Index 1 of the probability row is the end-of-turn class.
	return clampProbability(float64(out[1])), nil
}

// DetectEndOfUtterance applies the instance threshold; ties count as end of
// turn.
func (d *TurnSenseDetector) DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error) {
	return d.DetectWithThreshold(ctx, chatCtx, d.Threshold())
}

// DetectWithThreshold overrides the instance threshold for this call only.
func (d *TurnSenseDetector) DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error) {
	probability, err := d.EOUProbability(ctx, chatCtx)
	if err != nil {
		return false, err
	}
	if probability < threshold {
		d.emit(fmt.Errorf("turn detection: probability %.3f below threshold %.3f", probability, threshold))
		return false, nil
	}
	return true, nil
}

// SupportsContinuousProbability reports true: thresholds act on a real
// probability.
func (d *TurnSenseDetector) SupportsContinuousProbability() bool { return true }

// Close releases the inference session and tokenizer. Safe to call more
// than once.
func (d *TurnSenseDetector) Close() error {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.enc = nil

	var err error
	if d.runner != nil {
		err = d.runner.destroy()
		d.runner = nil
	}
	d.logger.Info("turn detector closed", slog.String("model", d.label))
	return err
}

// clampProbability keeps quantized-model output inside [0, 1].
func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
