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

const binaryLabel = "turn-detection-v1"

// BinaryDetector is the BERT-based binary turn classifier served from the
// VideoSDK CDN. It was not trained with a tunable decision boundary: the
// decision is the argmax of the class logits, thresholds are ignored, and
// EOUProbability reports only the hard 0.0/1.0 outcome. Callers needing a
// continuous score should check SupportsContinuousProbability and pick
// another variant.
type BinaryDetector struct {
	base

	stateMu sync.Mutex
	enc     textEncoder
	runner  inferenceRunner
	closed  bool
}

// NewBinaryDetector downloads the turn-detection-v1 artifacts on a cache
// miss and builds the tokenizer and inference session. Failures are fatal;
// no detector is returned.
func NewBinaryDetector(ctx context.Context, opts ...Option) (*BinaryDetector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	model := internal.BinaryModel
	dl := hub.NewDownloader(hub.WithLogger(o.logger))
	if err := ensureModelFiles(ctx, dl, o.modelPath, model); err != nil {
		return nil, fmt.Errorf("turn: initialize turn-detection-v1: %w", err)
	}

	enc, err := newHFEncoder(internal.ModelFilePath(o.modelPath, model, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize turn-detection-v1: %w", err)
	}

	runner, err := newORTRunner(internal.ModelFilePath(o.modelPath, model, model.ModelFile))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize turn-detection-v1: %w", err)
	}

	o.logger.Info("turn detector ready", slog.String("model", model.Name))

	return &BinaryDetector{
		base:   newBase(binaryLabel, o),
		enc:    enc,
		runner: runner,
	}, nil
}

func (d *BinaryDetector) handles() (textEncoder, inferenceRunner, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed || d.enc == nil || d.runner == nil {
		return nil, nil, ErrNotInitialized
	}
	return d.enc, d.runner, nil
}

// classify runs the hard binary decision over the reduced text. Unlike the
// other variants it runs inference even when the utterance is empty; the
// tokenizer still yields the special-token frame.
func (d *BinaryDetector) classify(text string) (bool, error) {
	enc, runner, err := d.handles()
	if err != nil {
		return false, err
	}

	ids, mask, typeIDs, err := enc.encode(text, internal.BinaryModel.MaxSeqLen)
	if err != nil {
		d.absorb(err)
		return false, nil
	}

	out, err := runner.run(map[string][]int64{
		"input_ids":      ids,
		"attention_mask": mask,
		"token_type_ids": typeIDs,
	}, len(ids))
	if err != nil {
		d.absorb(err)
		return false, nil
	}

	isEOU := argmax(out) == 1
	if !isEOU {
		d.emit(fmt.Errorf("turn detection: classified as not end of turn"))
	}
	return isEOU, nil
}

// EOUProbability reports the hard classification as 0.0 or 1.0; no
// intermediate value is ever produced.
func (d *BinaryDetector) EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	isEOU, err := d.classify(lastUserText(chatCtx))
	if err != nil {
		d.emit(err)
		return 0, err
	}
	if isEOU {
		return 1.0, nil
	}
	return 0.0, nil
}

// DetectEndOfUtterance returns the classifier's hard decision.
func (d *BinaryDetector) DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	isEOU, err := d.classify(lastUserText(chatCtx))
	if err != nil {
		d.emit(err)
		return false, err
	}
	return isEOU, nil
}

// DetectWithThreshold ignores the threshold override; the model exposes no
// tunable decision boundary.
func (d *BinaryDetector) DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error) {
	return d.DetectEndOfUtterance(ctx, chatCtx)
}

// SupportsContinuousProbability reports false: probabilities are the hard
// 0.0/1.0 outcome and thresholds have no effect.
func (d *BinaryDetector) SupportsContinuousProbability() bool { return false }

// Close releases the inference session and tokenizer. Safe to call more
// than once.
func (d *BinaryDetector) Close() error {
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
