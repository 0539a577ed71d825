package turn

import (
	"math"
	"testing"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	tests := [][]float32{
		{0, 0},
		{1, 3},
		{-5, 5},
		{0.1, 0.2, 0.3, 0.4},
	}
	for _, logits := range tests {
		probs := softmax(logits)
		var sum float64
		for _, p := range probs {
			if p < 0 || p > 1 {
				t.Errorf("softmax(%v) produced out-of-range probability %v", logits, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("softmax(%v) sums to %v, want 1.0", logits, sum)
		}
	}
}

func TestSoftmaxNumericallyStable(t *testing.T) {
	// Without the row-max subtraction these logits overflow float64 exp.
	probs := softmax([]float32{1000, 1001})
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("softmax overflowed: %v", probs)
		}
	}
	want := math.Exp(1) / (1 + math.Exp(1))
	if math.Abs(probs[1]-want) > 1e-6 {
		t.Errorf("probs[1] = %v, want %v", probs[1], want)
	}
}

func TestSoftmaxPreservesOrdering(t *testing.T) {
	probs := softmax([]float32{2.0, -1.0})
	if probs[0] <= probs[1] {
		t.Errorf("larger logit must map to larger probability: %v", probs)
	}
}

func TestSoftmaxEmpty(t *testing.T) {
	if got := softmax(nil); got != nil {
		t.Errorf("softmax(nil) = %v, want nil", got)
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		values []float32
		want   int
	}{
		{[]float32{0.1, 0.9}, 1},
		{[]float32{0.9, 0.1}, 0},
		{[]float32{1, 1}, 0}, // tie goes to the earliest index
		{[]float32{-3, -2, -5}, 1},
	}
	for _, tt := range tests {
		if got := argmax(tt.values); got != tt.want {
			t.Errorf("argmax(%v) = %d, want %d", tt.values, got, tt.want)
		}
	}
}

func TestClampProbability(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.01, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.02, 1},
	}
	for _, tt := range tests {
		if got := clampProbability(tt.in); got != tt.want {
			t.Errorf("clampProbability(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
