package internal

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFileURLHuggingFace(t *testing.T) {
	got := TurnSenseModel.FileURL("model_quantized.onnx")
	want := "https://huggingface.co/latishab/turnsense/resolve/main/model_quantized.onnx"
	if got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}
}

func TestFileURLCDN(t *testing.T) {
	got := BinaryModel.FileURL("vocab.txt")
	want := "https://cdn.videosdk.live/models/turn-detection-v1/vocab.txt"
	if got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}
}

func TestModelFilePath(t *testing.T) {
	got := ModelFilePath("/var/cache/models", TurnSenseModel, "tokenizer.json")
	want := filepath.Join("/var/cache/models", "turnsense", "tokenizer.json")
	if got != want {
		t.Errorf("ModelFilePath = %q, want %q", got, want)
	}
}

func TestDefaultModelPathEnvOverride(t *testing.T) {
	t.Setenv("TURN_MODEL_PATH", "/opt/models")
	if got := DefaultModelPath(); got != "/opt/models" {
		t.Errorf("DefaultModelPath = %q, want env override", got)
	}
}

func TestNamoModelNames(t *testing.T) {
	m := NamoModel("")
	if m.Name != "namo-turn-detector-v1-multilingual" {
		t.Errorf("multilingual cache name = %q", m.Name)
	}
	if m.ModelFile != "model_quant.onnx" {
		t.Errorf("model file = %q, want model_quant.onnx", m.ModelFile)
	}

	m = NamoModel("de")
	if !strings.HasSuffix(m.Repo, "German") {
		t.Errorf("repo = %q, want German suffix", m.Repo)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"xx", "Xx"},
		{"SWAHILI", "Swahili"},
		{"t", "T"},
	}
	for _, tt := range tests {
		if got := capitalize(tt.in); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
