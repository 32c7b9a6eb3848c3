package convert

import (
	"path/filepath"
	"testing"
)

func TestIsCompanionWAV(t *testing.T) {
	tests := []struct {
		name string
		base string
		want bool
	}{
		{"RENDER0.STR[0.0].wav", "RENDER0", true},
		{"RENDER0.wav", "RENDER0", true},
		{"RENDER0[1].WAV", "RENDER0", true},
		{"RENDER10.STR[0.0].wav", "RENDER1", false},
		{"RENDER0.STR[0].avi", "RENDER0", false},
		{"OTHER.STR[0.0].wav", "RENDER0", false},
		{"RENDER0.STR[0.0].wav", "", false},
	}
	for _, tt := range tests {
		if got := isCompanionWAV(tt.name, tt.base); got != tt.want {
			t.Errorf("isCompanionWAV(%q, %q) = %v, want %v", tt.name, tt.base, got, tt.want)
		}
	}
}

func TestNewJobDerivesPaths(t *testing.T) {
	src := filepath.Join("/game", "FMV", "RENDER4.STR")
	job := NewJob(src, Primary)
	if job.Index != filepath.Join("/game", "FMV", "RENDER4.idx") {
		t.Fatalf("unexpected index: %q", job.Index)
	}
	if job.OutputDir != filepath.Join("/game", "FMV") {
		t.Fatalf("unexpected output dir: %q", job.OutputDir)
	}
	if job.BaseName() != "RENDER4" || job.Name() != "RENDER4.STR" {
		t.Fatalf("unexpected names: %q %q", job.BaseName(), job.Name())
	}
	if job.Class.String() != "fmv" || Secondary.String() != "xa" {
		t.Fatal("unexpected class names")
	}
}
