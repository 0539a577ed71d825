package turn

import "strings"

// fakeEncoder records what it was asked to encode and emits one token per
// whitespace-separated word plus two special-token positions.
type fakeEncoder struct {
	lastText   string
	lastMaxLen int
	err        error
}

func (e *fakeEncoder) encode(text string, maxLen int) ([]int64, []int64, []int64, error) {
	e.lastText = text
	e.lastMaxLen = maxLen
	if e.err != nil {
		return nil, nil, nil, e.err
	}

	n := len(strings.Fields(text)) + 2
	if maxLen > 0 && n > maxLen {
		n = maxLen
	}
	ids := make([]int64, n)
	mask := make([]int64, n)
	typeIDs := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
		mask[i] = 1
	}
	return ids, mask, typeIDs, nil
}

// fakeRunner records the feeds it received and returns a canned output row.
type fakeRunner struct {
	names      []string
	out        []float32
	err        error
	lastFeeds  map[string][]int64
	lastSeqLen int
	runs       int
	destroys   int
}

func (r *fakeRunner) inputNames() []string {
	if r.names == nil {
		return []string{"input_ids", "attention_mask"}
	}
	return r.names
}

func (r *fakeRunner) run(feeds map[string][]int64, seqLen int) ([]float32, error) {
	r.runs++
	r.lastFeeds = feeds
	r.lastSeqLen = seqLen
	if r.err != nil {
		return nil, r.err
	}
	return r.out, nil
}

func (r *fakeRunner) destroy() error {
	r.destroys++
	return nil
}

// errCollector gathers emitted non-fatal errors.
type errCollector struct {
	errs []error
}

func (c *errCollector) handler() ErrorHandler {
	return func(err error) { c.errs = append(c.errs, err) }
}

func testOptions(c *errCollector) *options {
	o := defaultOptions()
	if c != nil {
		o.onError = c.handler()
	}
	return o
}
