// Package internal holds the model artifact catalog and cache path helpers
// for the turn detection variants.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModelInfo holds metadata for one turn-detection model family. Exactly one
// of Repo (Hugging Face) or CDNBaseURL is set.
type ModelInfo struct {
	Name       string // cache directory name, e.g. "turnsense"
	Repo       string // Hugging Face repository id
	CDNBaseURL string // CDN base URL for non-hub artifacts
	ModelFile  string // the ONNX graph within Files
	Files      []string
	MaxSeqLen  int
}

var (
	// TurnSenseModel is the distilled single-sentence classifier
	// (SmolLM2-135M based). Trained on a fixed 256-token window with
	// padding.
	TurnSenseModel = ModelInfo{
		Name:      "turnsense",
		Repo:      "latishab/turnsense",
		ModelFile: "model_quantized.onnx",
		Files: []string{
			"model_quantized.onnx",
			"tokenizer.json",
		},
		MaxSeqLen: 256,
	}

	// BinaryModel is the BERT binary classifier distributed from the
	// VideoSDK CDN.
	BinaryModel = ModelInfo{
		Name:       "turn-detection-v1",
		CDNBaseURL: "https://cdn.videosdk.live/models/turn-detection-v1/",
		ModelFile:  "model.onnx",
		Files: []string{
			"model.onnx",
			"special_tokens_map.json",
			"tokenizer_config.json",
			"tokenizer.json",
			"vocab.txt",
			"config.json",
		},
		MaxSeqLen: 512,
	}
)

const (
	namoRepoPrefix = "videosdk-live/Namo-Turn-Detector-v1-"

	// NamoMultilingualMaxSeqLen is the context window of the multilingual
	// Namo model; single-language distilled models are capped much shorter.
	NamoMultilingualMaxSeqLen = 8192
	NamoSingleLangMaxSeqLen   = 512
)

// namoLanguages maps ISO 639-1 codes to the language name used in the Namo
// repository naming scheme.
var namoLanguages = map[string]string{
	"ar": "Arabic",
	"bn": "Bengali",
	"zh": "Chinese",
	"da": "Danish",
	"nl": "Dutch",
	"de": "German",
	"en": "English",
	"fi": "Finnish",
	"fr": "French",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"mr": "Marathi",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"es": "Spanish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
}

// NamoRepo resolves the Hugging Face repository for a language code. An
// empty code selects the multilingual model. Unknown codes fall back to the
// capitalized literal so new per-language releases work without a catalog
// update; a bad guess surfaces as a 404 at download time.
func NamoRepo(language string) string {
	if language == "" {
		return namoRepoPrefix + "Multilingual"
	}
	name, ok := namoLanguages[strings.ToLower(language)]
	if !ok {
		name = capitalize(language)
	}
	return namoRepoPrefix + name
}

// NamoModel builds the artifact descriptor for a language code.
func NamoModel(language string) ModelInfo {
	maxLen := NamoSingleLangMaxSeqLen
	if language == "" {
		maxLen = NamoMultilingualMaxSeqLen
	}
	repo := NamoRepo(language)
	return ModelInfo{
		Name:      strings.ToLower(strings.TrimPrefix(repo, "videosdk-live/")),
		Repo:      repo,
		ModelFile: "model_quant.onnx",
		Files: []string{
			"model_quant.onnx",
			"tokenizer.json",
		},
		MaxSeqLen: maxLen,
	}
}

// capitalize upper-cases the first byte and lower-cases the rest, matching
// the repository naming fallback for unlisted languages.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// FileURL returns the download URL for one artifact file.
func (m ModelInfo) FileURL(filename string) string {
	if m.CDNBaseURL != "" {
		return strings.TrimSuffix(m.CDNBaseURL, "/") + "/" + filename
	}
	return fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", m.Repo, filename)
}

// DefaultModelPath returns the base directory for the local model cache.
// TURN_MODEL_PATH overrides it.
func DefaultModelPath() string {
	if path := os.Getenv("TURN_MODEL_PATH"); path != "" {
		return path
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "videosdk-models")
	}
	return filepath.Join(cacheDir, "videosdk", "models")
}

// ModelDir returns the cache directory for one model family.
func ModelDir(basePath string, m ModelInfo) string {
	if basePath == "" {
		basePath = DefaultModelPath()
	}
	return filepath.Join(basePath, m.Name)
}

// ModelFilePath returns the absolute path of one artifact file in the cache.
func ModelFilePath(basePath string, m ModelInfo, filename string) string {
	return filepath.Join(ModelDir(basePath, m), filename)
}
