package turn

import (
	"context"
	"fmt"
	"os"
)

// Model selects a detector variant.
type Model string

const (
	// ModelTurnSense is the distilled single-sentence classifier.
	ModelTurnSense Model = "turnsense"
	// ModelBinary is the BERT binary classifier (hard decisions only).
	ModelBinary Model = "turn-detection-v1"
	// ModelNamo is the Namo v1 family (multilingual or per-language).
	ModelNamo Model = "namo"
)

// Config holds factory configuration for creating turn detectors.
type Config struct {
	Model     Model   // defaults to ModelNamo
	Language  string  // Namo only; empty selects multilingual
	Threshold float64 // defaults to DefaultThreshold
	ModelPath string  // local cache override
	RemoteURL string  // remote inference endpoint (optional)
	OnError   ErrorHandler
}

// NewDetector creates a turn detector for the configured variant. When a
// remote URL is configured (or TURN_REMOTE_EOU_URL is set), the local
// detector becomes the fallback behind a RemoteDetector.
func NewDetector(ctx context.Context, cfg Config) (Detector, error) {
	if cfg.Model == "" {
		cfg.Model = ModelNamo
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}

	opts := []Option{
		WithThreshold(cfg.Threshold),
		WithModelPath(cfg.ModelPath),
		WithLanguage(cfg.Language),
	}
	if cfg.OnError != nil {
		opts = append(opts, WithErrorHandler(cfg.OnError))
	}

	var (
		local Detector
		err   error
	)
	switch cfg.Model {
	case ModelTurnSense:
		local, err = NewTurnSenseDetector(ctx, opts...)
	case ModelBinary:
		local, err = NewBinaryDetector(ctx, opts...)
	case ModelNamo:
		local, err = NewNamoDetector(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q (supported: turnsense|turn-detection-v1|namo)", ErrUnknownModel, cfg.Model)
	}
	if err != nil {
		return nil, err
	}

	remoteURL := cfg.RemoteURL
	if remoteURL == "" {
		remoteURL = os.Getenv("TURN_REMOTE_EOU_URL")
	}
	if remoteURL != "" {
		return NewRemoteDetector(remoteURL, local, opts...), nil
	}
	return local, nil
}
