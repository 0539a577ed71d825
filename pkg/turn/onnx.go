package turn

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce    sync.Once
	ortInitErr error
)

// ensureOrtEnv initializes the ONNX Runtime environment exactly once per
// process. Multiple detectors share the environment; initializing it twice
// triggers duplicate schema registration warnings.
func ensureOrtEnv() error {
	ortOnce.Do(func() {
		if libPath := os.Getenv("ONNXRUNTIME_LIB"); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		} else if runtime.GOOS == "darwin" {
			// Homebrew default on macOS.
			ort.SetSharedLibraryPath("/opt/homebrew/lib/libonnxruntime.dylib")
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// inferenceRunner abstracts the tensor-graph execution so detector logic can
// be exercised without a live ONNX Runtime.
type inferenceRunner interface {
	// inputNames lists the graph's declared inputs in graph order.
	inputNames() []string
	// run feeds one batch (shape [1, seqLen] per input) and returns the
	// first output row.
	run(feeds map[string][]int64, seqLen int) ([]float32, error)
	destroy() error
}

// ortRunner executes a classifier via onnxruntime_go. Sessions are dynamic
// because the sequence length differs per utterance.
type ortRunner struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
}

// newORTRunner inspects the graph to learn its input names (the BERT-style
// variant additionally wants token_type_ids) and builds a CPU session.
func newORTRunner(modelFile string) (*ortRunner, error) {
	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelFile)
	}

	if err := ensureOrtEnv(); err != nil {
		return nil, fmt.Errorf("initialize ONNX runtime: %w", err)
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelFile)
	if err != nil {
		return nil, fmt.Errorf("inspect model graph: %w", err)
	}
	if len(inputInfo) == 0 || len(outputInfo) == 0 {
		return nil, fmt.Errorf("model graph has no inputs or outputs: %s", modelFile)
	}

	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	intraOp := runtime.NumCPU() / 2
	if intraOp < 1 {
		intraOp = 1
	}
	if err := opts.SetIntraOpNumThreads(intraOp); err != nil {
		return nil, fmt.Errorf("set intra-op threads: %w", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelFile,
		inputNames,
		[]string{outputInfo[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &ortRunner{session: session, inputs: inputNames}, nil
}

func (r *ortRunner) inputNames() []string {
	return r.inputs
}

func (r *ortRunner) run(feeds map[string][]int64, seqLen int) ([]float32, error) {
	inputs := make([]ort.Value, 0, len(r.inputs))
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()

	shape := ort.NewShape(1, int64(seqLen))
	for _, name := range r.inputs {
		data, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("missing input %q", name)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	// nil output lets the runtime allocate the logits tensor.
	outputs := []ort.Value{nil}
	if err := r.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	data := tensor.GetData()
	if len(data) == 0 {
		return nil, fmt.Errorf("empty output tensor")
	}

	row := make([]float32, len(data))
	copy(row, data)
	return row, nil
}

func (r *ortRunner) destroy() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}

// softmax converts logits to probabilities, subtracting the row max before
// exponentiating for numerical stability.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l - maxLogit))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the largest value, ties going to the earliest.
func argmax(values []float32) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
