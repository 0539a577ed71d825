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

const namoLabel = "namo-turn-v1"

// NamoDetector is the Namo Turn Detector v1 family: a multilingual
// two-class classifier by default, or a distilled single-language model when
// a language code is supplied. The multilingual model accepts long context
// (8192 tokens); single-language models are capped at 512 to match their
// training window.
type NamoDetector struct {
	base

	language   string
	maxSeqLen  int
	wantsTypes bool

	stateMu sync.Mutex
	enc     textEncoder
	runner  inferenceRunner
	closed  bool
}

// NewNamoDetector resolves the model repository from WithLanguage (empty
// selects multilingual), downloads the artifacts on a cache miss and builds
// the tokenizer and inference session. An unrecognized language code is not
// rejected here: it resolves to a best-effort capitalized repository name
// and, if that repository does not exist, surfaces as a download failure.
func NewNamoDetector(ctx context.Context, opts ...Option) (*NamoDetector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	model := internal.NamoModel(o.language)
	dl := hub.NewDownloader(hub.WithLogger(o.logger))
	if err := ensureModelFiles(ctx, dl, o.modelPath, model); err != nil {
		return nil, fmt.Errorf("turn: initialize namo (%s): %w", model.Repo, err)
	}

	enc, err := newHFEncoder(internal.ModelFilePath(o.modelPath, model, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize namo (%s): %w", model.Repo, err)
	}

	runner, err := newORTRunner(internal.ModelFilePath(o.modelPath, model, model.ModelFile))
	if err != nil {
		return nil, fmt.Errorf("turn: initialize namo (%s): %w", model.Repo, err)
	}

	o.logger.Info("turn detector ready",
		slog.String("model", model.Name),
		slog.String("repo", model.Repo),
		slog.Int("max_seq_len", model.MaxSeqLen))

	return &NamoDetector{
		base:       newBase(namoLabel, o),
		language:   o.language,
		maxSeqLen:  model.MaxSeqLen,
		wantsTypes: hasInput(runner, "token_type_ids"),
		enc:        enc,
		runner:     runner,
	}, nil
}

// hasInput reports whether the loaded graph declares the named input. The
// per-language DistilBERT models take only input_ids and attention_mask;
// the multilingual model additionally wants token_type_ids.
func hasInput(runner inferenceRunner, name string) bool {
	for _, n := range runner.inputNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Language returns the language code the detector was constructed with, or
// "" for the multilingual model.
func (d *NamoDetector) Language() string { return d.language }

func (d *NamoDetector) handles() (textEncoder, inferenceRunner, error) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed || d.enc == nil || d.runner == nil {
		return nil, nil, ErrNotInitialized
	}
	return d.enc, d.runner, nil
}

// EOUProbability scores the last user utterance. An empty utterance
// short-circuits to 0.0 without running inference. Tokenization and
// inference failures are absorbed into 0.0 and reported through the error
// handler.
func (d *NamoDetector) EOUProbability(ctx context.Context, chatCtx *llm.ChatContext) (float64, error) {
	enc, runner, err := d.handles()
	if err != nil {
		d.emit(err)
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	text := lastUserText(chatCtx)
	if text == "" {
		return 0, nil
	}

	ids, mask, typeIDs, err := enc.encode(text, d.maxSeqLen)
	if err != nil {
		return d.absorb(err), nil
	}

	feeds := map[string][]int64{
		"input_ids":      ids,
		"attention_mask": mask,
	}
	if d.wantsTypes {
		feeds["token_type_ids"] = typeIDs
	}

	logits, err := runner.run(feeds, len(ids))
	if err != nil {
		return d.absorb(err), nil
	}
	if len(logits) < 2 {
		return d.absorb(fmt.Errorf("unexpected output size %d", len(logits))), nil
	}

	probs := softmax(logits)
	return probs[1], nil
}

// DetectEndOfUtterance applies the instance threshold; ties count as end of
// turn.
func (d *NamoDetector) DetectEndOfUtterance(ctx context.Context, chatCtx *llm.ChatContext) (bool, error) {
	return d.DetectWithThreshold(ctx, chatCtx, d.Threshold())
}

// DetectWithThreshold overrides the instance threshold for this call only.
func (d *NamoDetector) DetectWithThreshold(ctx context.Context, chatCtx *llm.ChatContext, threshold float64) (bool, error) {
	probability, err := d.EOUProbability(ctx, chatCtx)
	if err != nil {
		return false, err
	}
	return probability >= threshold, nil
}

// SupportsContinuousProbability reports true: thresholds act on a real
// probability.
func (d *NamoDetector) SupportsContinuousProbability() bool { return true }

// Close releases the inference session and tokenizer. Safe to call more
// than once.
func (d *NamoDetector) Close() error {
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
