package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ApprovalStatus is the review state of an image task.
type ApprovalStatus string

const (
	ApprovalPendingReview ApprovalStatus = "PENDING_REVIEW"
	ApprovalApproved      ApprovalStatus = "APPROVED"
	ApprovalRejected      ApprovalStatus = "REJECTED"
)

// ApprovalGateDisabled is the only production rule value that turns the gate off.
const ApprovalGateDisabled = "none"

// FileInfo describes the tool that produced a batch definition.
type FileInfo struct {
	PipelineContext string `json:"pipeline_context"`
	Version         string `json:"version"`
	TargetTool      string `json:"target_tool"`
}

// OutputConfig holds the rendering parameters shared by every task.
type OutputConfig struct {
	AspectRatio string     `json:"aspect_ratio"`
	Resolution  Resolution `json:"resolution_px"`
	ImageFormat string     `json:"image_format"`
}

// ProductionRules bound what a batch may request.
type ProductionRules struct {
	MaxReferenceImages int    `json:"nanobanana_max_reference_images"`
	VariantsPerTask    int    `json:"nanobanana_variants_per_image_task"`
	ApprovalGate       string `json:"approval_gate"`
}

// ProjectInfo is the "project" block of a batch definition.
type ProjectInfo struct {
	ProjectID       string          `json:"project_id"`
	Title           string          `json:"title"`
	ScopeBlocks     []string        `json:"scope_blocks_included"`
	Output          OutputConfig    `json:"output"`
	ProductionRules ProductionRules `json:"production_rules"`

	Extra map[string]json.RawMessage `json:"-"`
}

// StylePresets are prepended to every task prompt.
type StylePresets struct {
	GlobalImageStyle     string `json:"global_image_style"`
	GlobalNegativeAppend string `json:"global_negative_append"`
}

// Approval records the review decision for a task.
type Approval struct {
	Status ApprovalStatus `json:"status"`
	Notes  string         `json:"notes,omitempty"`
}

// ImageTask is one unit of work inside a batch project.
type ImageTask struct {
	TaskID         string                     `json:"task_id"`
	BlockID        string                     `json:"block_id"`
	ShotID         string                     `json:"shot_id"`
	Role           string                     `json:"role"`
	Variants       *int                       `json:"variants,omitempty"`
	Refs           []string                   `json:"refs"`
	Prompt         string                     `json:"prompt"`
	NegativePrompt string                     `json:"negative_prompt,omitempty"`
	Approval       Approval                   `json:"approval"`
	Output         map[string]json.RawMessage `json:"output,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// BatchProject is a NanoBanana ingestion unit.
type BatchProject struct {
	FileInfo     *FileInfo                  `json:"file_info,omitempty"`
	Project      ProjectInfo                `json:"project"`
	AssetLibrary map[string]json.RawMessage `json:"asset_library"`
	StylePresets *StylePresets              `json:"style_presets,omitempty"`
	ImageTasks   []ImageTask                `json:"image_tasks"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ID returns the project identifier.
func (p *BatchProject) ID() string {
	return p.Project.ProjectID
}

// ApprovalGateActive reports whether downstream stages must wait for reviews.
func (p *BatchProject) ApprovalGateActive() bool {
	return p.Project.ProductionRules.ApprovalGate != ApprovalGateDisabled
}

// KnownAssetIDs flattens the asset library into the set of declared asset IDs.
// Only categories shaped as alias -> id objects contribute; lists such as
// free-form notes are ignored.
func (p *BatchProject) KnownAssetIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, raw := range p.AssetLibrary {
		var aliases map[string]string
		if err := json.Unmarshal(raw, &aliases); err != nil {
			continue
		}
		for _, id := range aliases {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Clone returns a deep copy so repositories never share mutable state with callers.
func (p *BatchProject) Clone() *BatchProject {
	if p == nil {
		return nil
	}
	out := *p
	if p.FileInfo != nil {
		fi := *p.FileInfo
		out.FileInfo = &fi
	}
	if p.StylePresets != nil {
		sp := *p.StylePresets
		out.StylePresets = &sp
	}
	out.Project.ScopeBlocks = append([]string(nil), p.Project.ScopeBlocks...)
	out.Project.Extra = cloneRaw(p.Project.Extra)
	out.AssetLibrary = cloneRaw(p.AssetLibrary)
	out.Extra = cloneRaw(p.Extra)
	if p.ImageTasks != nil {
		out.ImageTasks = make([]ImageTask, len(p.ImageTasks))
		for i, task := range p.ImageTasks {
			out.ImageTasks[i] = task.clone()
		}
	}
	return &out
}

func (t ImageTask) clone() ImageTask {
	out := t
	if t.Variants != nil {
		v := *t.Variants
		out.Variants = &v
	}
	out.Refs = append([]string(nil), t.Refs...)
	out.Output = cloneRaw(t.Output)
	out.Extra = cloneRaw(t.Extra)
	return out
}

func cloneRaw(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Resolution accepts either a preset token ("1K", "2K") or a [width, height]
// pair and keeps the token form generators expect.
type Resolution string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resolution) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		*r = Resolution(strings.TrimSpace(token))
		return nil
	}
	var dims []int
	if err := json.Unmarshal(data, &dims); err != nil {
		return err
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	*r = Resolution(strings.Join(parts, "x"))
	return nil
}
