package domain

import (
	"errors"
	"testing"
)

func TestShotNormalizeDefaults(t *testing.T) {
	s := &Shot{VideoID: " v1 ", BlockID: "B01", ShotID: "P01", AssetMode: "still_only"}
	s.Normalize()
	if s.VideoID != "v1" {
		t.Fatalf("VideoID = %q", s.VideoID)
	}
	if s.AssetMode != AssetModeStillOnly {
		t.Fatalf("AssetMode = %q", s.AssetMode)
	}
	if s.State != ShotStatePending {
		t.Fatalf("State = %q", s.State)
	}

	empty := &Shot{}
	empty.Normalize()
	if empty.AssetMode != AssetModeImage1FVideo {
		t.Fatalf("default AssetMode = %q", empty.AssetMode)
	}
}

func TestShotValidate(t *testing.T) {
	tests := []struct {
		name string
		shot Shot
		ok   bool
	}{
		{"complete", Shot{VideoID: "v1", BlockID: "B01", ShotID: "P01", AssetMode: AssetModeStillOnly}, true},
		{"missing ids", Shot{AssetMode: AssetModeStillOnly}, false},
		{"bad mode", Shot{VideoID: "v1", BlockID: "B01", ShotID: "P01", AssetMode: "LOOP"}, false},
		{"traversal", Shot{VideoID: "..", BlockID: "B01", ShotID: "P01", AssetMode: AssetModeStillOnly}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shot.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAssetModeWantsVideo(t *testing.T) {
	if AssetModeStillOnly.WantsVideo() {
		t.Fatal("STILL_ONLY must not want video")
	}
	if !AssetModeImage1FVideo.WantsVideo() || !AssetModeImage2FVideo.WantsVideo() {
		t.Fatal("video modes must want video")
	}
}

func TestShotResetOutputs(t *testing.T) {
	s := &Shot{
		ImagePrompt: "p", VideoPrompt: "v", ImagePath: "/a.png", VideoPath: "/a.mp4",
		ResolvedAssetPath: "/lib/a.png", State: ShotStateError, ErrorMessage: "boom", ErrorCode: "internal",
	}
	s.ResetOutputs()
	if s.ImagePath != "" || s.VideoPath != "" || s.ImagePrompt != "" || s.VideoPrompt != "" {
		t.Fatalf("outputs not cleared: %+v", s)
	}
	if s.ErrorMessage != "" || s.ErrorCode != "" || s.State != ShotStatePending {
		t.Fatalf("lifecycle not reset: %+v", s)
	}
	if s.ResolvedAssetPath != "/lib/a.png" {
		t.Fatalf("resolution fields are rebuilt by the pipeline, not cleared here")
	}
}
