package turn

import (
	"context"
	"fmt"

	"github.com/videosdk-community/agents-go/pkg/hub"
	"github.com/videosdk-community/agents-go/pkg/turn/internal"
)

// ensureModelFiles makes every artifact of a model family available in the
// local cache, downloading missing files.
func ensureModelFiles(ctx context.Context, dl *hub.Downloader, modelPath string, m internal.ModelInfo) error {
	for _, filename := range m.Files {
		dest := internal.ModelFilePath(modelPath, m, filename)
		if err := dl.EnsureFile(ctx, m.FileURL(filename), dest); err != nil {
			return err
		}
	}
	return nil
}

// DownloadTurnSenseModel warms the cache for the TurnSense variant so agent
// startup does not block on a cold download.
func DownloadTurnSenseModel(ctx context.Context, modelPath string) error {
	return downloadModel(ctx, modelPath, internal.TurnSenseModel)
}

// DownloadBinaryModel warms the cache for the turn-detection-v1 variant.
func DownloadBinaryModel(ctx context.Context, modelPath string) error {
	return downloadModel(ctx, modelPath, internal.BinaryModel)
}

// DownloadNamoModel warms the cache for a Namo variant. An empty language
// selects the multilingual model.
func DownloadNamoModel(ctx context.Context, modelPath, language string) error {
	return downloadModel(ctx, modelPath, internal.NamoModel(language))
}

func downloadModel(ctx context.Context, modelPath string, m internal.ModelInfo) error {
	dl := hub.NewDownloader()
	if err := ensureModelFiles(ctx, dl, modelPath, m); err != nil {
		return fmt.Errorf("turn: download model %s: %w", m.Name, err)
	}
	return nil
}

// ModelStatus reports, per model family, whether every artifact file is
// present in the local cache. Per-language Namo variants are reported only
// for the multilingual default; language-specific caches are keyed by their
// repository name.
func ModelStatus(modelPath string) map[string]bool {
	models := []internal.ModelInfo{
		internal.TurnSenseModel,
		internal.BinaryModel,
		internal.NamoModel(""),
	}

	status := make(map[string]bool, len(models))
	for _, m := range models {
		complete := true
		for _, filename := range m.Files {
			if !hub.IsCached(internal.ModelFilePath(modelPath, m, filename)) {
				complete = false
				break
			}
		}
		status[m.Name] = complete
	}
	return status
}
