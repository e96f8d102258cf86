package domain

import (
	"fmt"
	"strings"
)

// AssetMode controls which media a shot produces.
type AssetMode string

const (
	AssetModeStillOnly    AssetMode = "STILL_ONLY"
	AssetModeImage1FVideo AssetMode = "IMAGE_1F_VIDEO"
	// AssetModeImage2FVideo currently renders exactly like AssetModeImage1FVideo;
	// two-frame interpolation has no implementation.
	AssetModeImage2FVideo AssetMode = "IMAGE_2F_VIDEO"
)

// Valid reports whether m is one of the supported modes.
func (m AssetMode) Valid() bool {
	switch m {
	case AssetModeStillOnly, AssetModeImage1FVideo, AssetModeImage2FVideo:
		return true
	default:
		return false
	}
}

// WantsVideo reports whether the mode requires a video after the still.
func (m AssetMode) WantsVideo() bool {
	return m == AssetModeImage1FVideo || m == AssetModeImage2FVideo
}

// ShotState enumerates the shot pipeline lifecycle.
type ShotState string

const (
	ShotStatePending    ShotState = "PENDING"
	ShotStateInProgress ShotState = "IN_PROGRESS"
	ShotStateCompleted  ShotState = "COMPLETED"
	ShotStateError      ShotState = "ERROR"
)

// Shot is one video segment rendered by the shot pipeline. The caller owns
// the record; the pipeline mutates it in place and hands it back.
type Shot struct {
	VideoID           string    `json:"video_id"`
	BlockID           string    `json:"block_id"`
	ShotID            string    `json:"shot_id"`
	CoreFlag          bool      `json:"core_flag"`
	MVContext         string    `json:"mv_context"`
	AssetID           string    `json:"asset_id,omitempty"`
	AssetMode         AssetMode `json:"asset_mode"`
	CameraMove        string    `json:"camera_move"`
	DurationSeconds   float64   `json:"duration_seconds"`
	SummaryText       string    `json:"summary_text,omitempty"`
	VisualDescription string    `json:"visual_description"`
	NarrativeFunction string    `json:"narrative_function,omitempty"`

	ImagePrompt string `json:"image_prompt,omitempty"`
	VideoPrompt string `json:"video_prompt,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
	VideoPath   string `json:"video_path,omitempty"`

	ResolvedAssetFileName string `json:"resolved_asset_file_name,omitempty"`
	ResolvedAssetPath     string `json:"resolved_asset_path,omitempty"`
	ContextMismatchFlag   bool   `json:"context_mismatch_flag"`

	State        ShotState `json:"state"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty"`
}

// Key returns the composite identity video/block/shot.
func (s *Shot) Key() string {
	return s.VideoID + "/" + s.BlockID + "/" + s.ShotID
}

// Normalize fills lifecycle defaults for a freshly submitted shot. A shot
// without an explicit mode renders a single-frame video.
func (s *Shot) Normalize() {
	s.VideoID = strings.TrimSpace(s.VideoID)
	s.BlockID = strings.TrimSpace(s.BlockID)
	s.ShotID = strings.TrimSpace(s.ShotID)
	s.AssetID = strings.TrimSpace(s.AssetID)
	s.AssetMode = AssetMode(strings.ToUpper(strings.TrimSpace(string(s.AssetMode))))
	if s.AssetMode == "" {
		s.AssetMode = AssetModeImage1FVideo
	}
	if s.State == "" {
		s.State = ShotStatePending
	}
}

// Validate enforces the schema a shot must satisfy before any external call.
func (s *Shot) Validate() error {
	var missing []string
	if s.VideoID == "" {
		missing = append(missing, "video_id")
	}
	if s.BlockID == "" {
		missing = append(missing, "block_id")
	}
	if s.ShotID == "" {
		missing = append(missing, "shot_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !s.AssetMode.Valid() {
		return fmt.Errorf("%w: unsupported asset_mode %q", ErrValidation, s.AssetMode)
	}
	for _, part := range []string{s.VideoID, s.BlockID, s.ShotID} {
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return fmt.Errorf("%w: identifier %q must not contain path separators", ErrValidation, part)
		}
	}
	return nil
}

// ResetOutputs clears generated prompts and media so the pipeline rebuilds them.
func (s *Shot) ResetOutputs() {
	s.ImagePrompt = ""
	s.VideoPrompt = ""
	s.ImagePath = ""
	s.VideoPath = ""
	s.ErrorMessage = ""
	s.ErrorCode = ""
	s.State = ShotStatePending
}
