package jsoncfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"engine/internal/domain"
)

// ErrInvalidPayload marks a batch definition that is not well-formed JSON of
// the expected shape. It is a wire error, distinct from business validation.
var ErrInvalidPayload = errors.New("invalid payload")

var (
	requestFields = fieldSet("file_info", "project", "asset_library", "style_presets", "image_tasks")
	projectFields = fieldSet("project_id", "title", "scope_blocks_included", "output", "production_rules")
	taskFields    = fieldSet("task_id", "block_id", "shot_id", "role", "variants", "refs", "prompt", "negative_prompt", "approval", "output")
)

// DecodeProject parses a batch definition. Known fields are decoded into the
// core schema; anything else is kept in the Extra side-maps untouched.
func DecodeProject(data []byte) (*domain.BatchProject, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	var project domain.BatchProject
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	project.Extra = extras(top, requestFields)

	if raw, ok := top["project"]; ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err == nil {
			project.Project.Extra = extras(fields, projectFields)
		}
	}

	if raw, ok := top["image_tasks"]; ok {
		var tasks []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &tasks); err == nil {
			for i := range tasks {
				if i < len(project.ImageTasks) {
					project.ImageTasks[i].Extra = extras(tasks[i], taskFields)
				}
			}
		}
	}
	return &project, nil
}

// Validate checks the structural contract of a decoded project. Business
// rules (reference limits, catalog checks, duplicate IDs) are enforced at
// ingestion.
func Validate(p *domain.BatchProject) error {
	if p == nil {
		return fmt.Errorf("%w: project is required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Project.ProjectID) == "" {
		return fmt.Errorf("%w: project.project_id is required", domain.ErrValidation)
	}
	if !safePathPart(p.Project.ProjectID) {
		return fmt.Errorf("%w: project.project_id must not contain path separators", domain.ErrValidation)
	}
	rules := p.Project.ProductionRules
	if rules.MaxReferenceImages < 0 {
		return fmt.Errorf("%w: nanobanana_max_reference_images must not be negative", domain.ErrValidation)
	}
	if rules.VariantsPerTask < 0 {
		return fmt.Errorf("%w: nanobanana_variants_per_image_task must not be negative", domain.ErrValidation)
	}
	for i, task := range p.ImageTasks {
		if strings.TrimSpace(task.TaskID) == "" {
			return fmt.Errorf("%w: image_tasks[%d].task_id is required", domain.ErrValidation, i)
		}
		for _, part := range []string{task.TaskID, task.BlockID, task.ShotID, task.Role} {
			if !safePathPart(part) {
				return fmt.Errorf("%w: image_tasks[%d] identifier %q must not contain path separators", domain.ErrValidation, i, part)
			}
		}
		if task.Variants != nil && *task.Variants < 0 {
			return fmt.Errorf("%w: image_tasks[%d].variants must not be negative", domain.ErrValidation, i)
		}
	}
	return nil
}

// ExtraKeys lists every unrecognised field path, sorted, for logging.
func ExtraKeys(p *domain.BatchProject) []string {
	var keys []string
	for k := range p.Extra {
		keys = append(keys, k)
	}
	for k := range p.Project.Extra {
		keys = append(keys, "project."+k)
	}
	for _, task := range p.ImageTasks {
		for k := range task.Extra {
			keys = append(keys, "image_tasks["+task.TaskID+"]."+k)
		}
	}
	sort.Strings(keys)
	return keys
}

// safePathPart reports whether s can be used as one segment of an output
// path. Empty optional parts are allowed.
func safePathPart(s string) bool {
	return !strings.ContainsAny(s, `/\`) && s != "." && s != ".."
}

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func extras(fields map[string]json.RawMessage, known map[string]struct{}) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range fields {
		if _, ok := known[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[k] = v
	}
	return out
}
