package prompt

import (
	"strings"

	"engine/internal/domain"
)

// ConstructPrompt joins the global image style and the task prompt with a
// single space. Nothing else is ever added; missing parts contribute nothing.
func ConstructPrompt(presets *domain.StylePresets, task domain.ImageTask) string {
	var parts []string
	if presets != nil && presets.GlobalImageStyle != "" {
		parts = append(parts, presets.GlobalImageStyle)
	}
	if task.Prompt != "" {
		parts = append(parts, task.Prompt)
	}
	return strings.Join(parts, " ")
}

// ConstructNegativePrompt joins the global negative append and the task
// negative prompt with ", ".
func ConstructNegativePrompt(presets *domain.StylePresets, task domain.ImageTask) string {
	var parts []string
	if presets != nil && presets.GlobalNegativeAppend != "" {
		parts = append(parts, presets.GlobalNegativeAppend)
	}
	if task.NegativePrompt != "" {
		parts = append(parts, task.NegativePrompt)
	}
	return strings.Join(parts, ", ")
}
