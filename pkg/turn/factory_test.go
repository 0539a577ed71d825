package turn

import (
	"context"
	"errors"
	"testing"
)

func TestNewDetectorUnknownModel(t *testing.T) {
	_, err := NewDetector(context.Background(), Config{Model: "whisper"})
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	if cfg.Model == "" {
		cfg.Model = ModelNamo
	}
	if cfg.Model != ModelNamo {
		t.Errorf("default model = %q, want %q", cfg.Model, ModelNamo)
	}
}

func TestDefaultThresholdValue(t *testing.T) {
	if DefaultThreshold != 0.7 {
		t.Errorf("DefaultThreshold = %v, want 0.7", DefaultThreshold)
	}
}
