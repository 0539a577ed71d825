package turn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
	"github.com/videosdk-community/agents-go/pkg/turn/internal"
)

func newTestNamo(c *errCollector, enc textEncoder, runner inferenceRunner, maxLen int) *NamoDetector {
	d := &NamoDetector{
		base:      newBase(namoLabel, testOptions(c)),
		maxSeqLen: maxLen,
		enc:       enc,
		runner:    runner,
	}
	d.wantsTypes = hasInput(runner, "token_type_ids")
	return d
}

func TestNamoRepoResolution(t *testing.T) {
	tests := []struct {
		language string
		want     string
	}{
		{"", "videosdk-live/Namo-Turn-Detector-v1-Multilingual"},
		{"en", "videosdk-live/Namo-Turn-Detector-v1-English"},
		{"EN", "videosdk-live/Namo-Turn-Detector-v1-English"},
		{"hi", "videosdk-live/Namo-Turn-Detector-v1-Hindi"},
		{"zh", "videosdk-live/Namo-Turn-Detector-v1-Chinese"},
		// Unknown codes fall back to the capitalized literal.
		{"xx", "videosdk-live/Namo-Turn-Detector-v1-Xx"},
		{"swahili", "videosdk-live/Namo-Turn-Detector-v1-Swahili"},
	}
	for _, tt := range tests {
		if got := internal.NamoRepo(tt.language); got != tt.want {
			t.Errorf("NamoRepo(%q) = %q, want %q", tt.language, got, tt.want)
		}
	}
}

func TestNamoSequenceCapByVariant(t *testing.T) {
	multi := internal.NamoModel("")
	if multi.MaxSeqLen != 8192 {
		t.Errorf("multilingual max seq len = %d, want 8192", multi.MaxSeqLen)
	}
	single := internal.NamoModel("en")
	if single.MaxSeqLen != 512 {
		t.Errorf("single-language max seq len = %d, want 512", single.MaxSeqLen)
	}

	enc := &fakeEncoder{}
	d := newTestNamo(nil, enc, &fakeRunner{out: []float32{0, 0}}, single.MaxSeqLen)
	if _, err := d.EOUProbability(context.Background(), userContext("hello")); err != nil {
		t.Fatalf("EOUProbability error: %v", err)
	}
	if enc.lastMaxLen != 512 {
		t.Errorf("encoder truncation limit = %d, want 512", enc.lastMaxLen)
	}
}

func TestNamoEmptyInputShortCircuits(t *testing.T) {
	runner := &fakeRunner{out: []float32{0, 10}}
	d := newTestNamo(nil, &fakeEncoder{}, runner, 8192)

	p, err := d.EOUProbability(context.Background(), llm.EmptyChatContext())
	if err != nil {
		t.Fatalf("EOUProbability error: %v", err)
	}
	if p != 0 {
		t.Errorf("probability = %v, want 0.0 for empty input", p)
	}
	if runner.runs != 0 {
		t.Errorf("runs = %d, want 0 (empty input must not reach the model)", runner.runs)
	}
}

func TestNamoSoftmaxProbability(t *testing.T) {
	// logits [1, 3]: p(eou) = e^2 / (1 + e^2)
	runner := &fakeRunner{out: []float32{1.0, 3.0}}
	d := newTestNamo(nil, &fakeEncoder{}, runner, 8192)

	p, err := d.EOUProbability(context.Background(), userContext("what time is it?"))
	if err != nil {
		t.Fatalf("EOUProbability error: %v", err)
	}
	want := math.Exp(2) / (1 + math.Exp(2))
	if math.Abs(p-want) > 1e-9 {
		t.Errorf("probability = %v, want %v", p, want)
	}

	got, err := d.DetectEndOfUtterance(context.Background(), userContext("what time is it?"))
	if err != nil {
		t.Fatalf("DetectEndOfUtterance error: %v", err)
	}
	if !got {
		t.Errorf("probability %v above default threshold should be end of turn", p)
	}
}

func TestNamoThresholdOverride(t *testing.T) {
	runner := &fakeRunner{out: []float32{1.0, 3.0}} // p ~= 0.881
	d := newTestNamo(nil, &fakeEncoder{}, runner, 8192)

	got, err := d.DetectWithThreshold(context.Background(), userContext("so"), 0.95)
	if err != nil {
		t.Fatalf("DetectWithThreshold error: %v", err)
	}
	if got {
		t.Error("override threshold 0.95 should reject p~=0.881")
	}

	got, err = d.DetectWithThreshold(context.Background(), userContext("so"), 0.5)
	if err != nil {
		t.Fatalf("DetectWithThreshold error: %v", err)
	}
	if !got {
		t.Error("override threshold 0.5 should accept p~=0.881")
	}
}

func TestNamoTokenTypeIDsOnlyWhenDeclared(t *testing.T) {
	distil := &fakeRunner{names: []string{"input_ids", "attention_mask"}, out: []float32{0, 1}}
	d := newTestNamo(nil, &fakeEncoder{}, distil, 512)
	if _, err := d.EOUProbability(context.Background(), userContext("hello")); err != nil {
		t.Fatalf("EOUProbability error: %v", err)
	}
	if _, ok := distil.lastFeeds["token_type_ids"]; ok {
		t.Error("token_type_ids fed to a graph that does not declare it")
	}

	multi := &fakeRunner{names: []string{"input_ids", "attention_mask", "token_type_ids"}, out: []float32{0, 1}}
	d = newTestNamo(nil, &fakeEncoder{}, multi, 8192)
	if _, err := d.EOUProbability(context.Background(), userContext("hello")); err != nil {
		t.Fatalf("EOUProbability error: %v", err)
	}
	if _, ok := multi.lastFeeds["token_type_ids"]; !ok {
		t.Error("token_type_ids missing for a graph that declares it")
	}
}

func TestNamoInferenceFailureIsAbsorbed(t *testing.T) {
	collector := &errCollector{}
	d := newTestNamo(collector, &fakeEncoder{}, &fakeRunner{err: fmt.Errorf("broken graph")}, 8192)

	p, err := d.EOUProbability(context.Background(), userContext("hello"))
	if err != nil {
		t.Fatalf("inference failure must not surface as an error, got %v", err)
	}
	if p != 0 {
		t.Errorf("probability = %v, want 0.0", p)
	}
	if len(collector.errs) != 1 || !errors.Is(collector.errs[0], ErrInference) {
		t.Errorf("expected one ErrInference on the error channel, got %v", collector.errs)
	}
}

func TestNamoCloseIsIdempotentAndTerminal(t *testing.T) {
	runner := &fakeRunner{out: []float32{0, 1}}
	d := newTestNamo(nil, &fakeEncoder{}, runner, 8192)

	if err := d.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	if runner.destroys != 1 {
		t.Errorf("runner destroyed %d times, want exactly 1", runner.destroys)
	}
	if _, err := d.EOUProbability(context.Background(), userContext("hi")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("EOUProbability after Close: err = %v, want ErrNotInitialized", err)
	}
}
