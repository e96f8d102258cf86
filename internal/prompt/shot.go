// Package prompt assembles generation prompts. Every function is pure and
// deterministic.
package prompt

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"engine/internal/domain"
)

const (
	ImageStyle = "cinematic, photorealistic, 8k, highly detailed, dramatic lighting, movie still"
	VideoStyle = "high quality, stable, 4k, cinematic motion, smooth transition"
)

var contextPrefixes = map[string]string{
	"LAB_WIDE":       "Wide establishing shot of a high-tech laboratory",
	"LAB_MAIN":       "Medium shot inside the main laboratory workspace",
	"LAB_CLOSE":      "Close-up detail inside the laboratory",
	"CITY_NIGHT":     "Night exterior of a neon-lit city street",
	"EXTERIOR_DAY":   "Daylight exterior scene",
	"INTERIOR_NIGHT": "Low-key interior scene at night",
	"MINIMALIST":     "Minimalist composition on a clean neutral background",
}

var cameraMoves = map[string]string{
	"static":     "Static shot",
	"pan_left":   "Slow pan left",
	"pan_right":  "Slow pan right",
	"tilt_up":    "Slow tilt up",
	"tilt_down":  "Slow tilt down",
	"dolly_in":   "Smooth dolly in",
	"dolly_out":  "Smooth dolly out",
	"zoom_in":    "Slow zoom in",
	"zoom_out":   "Slow zoom out",
	"tracking":   "Tracking shot",
	"orbit":      "Orbiting shot",
	"crane_up":   "Crane up",
	"crane_down": "Crane down",
	"handheld":   "Handheld shot",
}

var titleCaser = cases.Title(language.English)

// ContextPrefix maps an mv_context tag to its scene phrase. Unmapped tags
// become "Scene set in <Title Cased Tag>"; an empty tag yields "".
func ContextPrefix(mvContext string) string {
	tag := strings.ToUpper(strings.TrimSpace(mvContext))
	if tag == "" {
		return ""
	}
	if prefix, ok := contextPrefixes[tag]; ok {
		return prefix
	}
	words := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(tag))
	return "Scene set in " + titleCaser.String(strings.Join(strings.Fields(words), " "))
}

// CameraMovement maps a camera move (case-insensitive) to a readable phrase,
// falling back to the raw value. An empty move reads as a static shot.
func CameraMovement(move string) string {
	raw := strings.TrimSpace(move)
	if raw == "" {
		return cameraMoves["static"]
	}
	key := strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(raw))
	if phrase, ok := cameraMoves[key]; ok {
		return phrase
	}
	return raw
}

// BuildImagePrompt composes the still prompt for shot. When anchor is non-nil
// its visual description is added as a "Visual Anchor" clause.
func BuildImagePrompt(shot *domain.Shot, anchor *domain.Asset) string {
	var parts []string
	if prefix := ContextPrefix(shot.MVContext); prefix != "" {
		parts = append(parts, sentence(prefix))
	}
	if desc := trimSentence(shot.VisualDescription); desc != "" {
		parts = append(parts, desc+".")
	}
	if narrative := trimSentence(shot.NarrativeFunction); narrative != "" {
		parts = append(parts, narrative+".")
	}
	if anchor != nil {
		if desc := trimSentence(anchor.VisualDescription); desc != "" {
			parts = append(parts, "Visual Anchor: "+desc+".")
		}
	}
	parts = append(parts, ImageStyle)
	return strings.Join(parts, " ")
}

// BuildVideoPrompt composes the motion prompt for shot.
func BuildVideoPrompt(shot *domain.Shot) string {
	var b strings.Builder
	b.WriteString(CameraMovement(shot.CameraMove))
	b.WriteString(" of ")
	b.WriteString(trimSentence(shot.VisualDescription))
	b.WriteString(".")
	if shot.DurationSeconds > 0 {
		b.WriteString(" Duration: ")
		b.WriteString(strconv.FormatFloat(shot.DurationSeconds, 'f', -1, 64))
		b.WriteString(" seconds.")
	}
	b.WriteString(" ")
	b.WriteString(VideoStyle)
	return b.String()
}

func trimSentence(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
}

func sentence(s string) string {
	return trimSentence(s) + "."
}
