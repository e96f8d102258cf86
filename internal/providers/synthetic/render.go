// Package synthetic renders deterministic placeholder media so the pipelines
// run end to end without provider credentials.
package synthetic

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
)

// Seed hashes parts into a short stable hex string.
func Seed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// ImagePNG renders a striped PNG whose colours derive from seed.
func ImagePNG(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFromSeed(seed, 0)}, image.Point{}, draw.Src)

	accent := colorFromSeed(seed, 1)
	stripe := max(32, height/12)
	for y := 0; y < height; y += stripe * 2 {
		draw.Draw(img, image.Rect(0, y, width, min(height, y+stripe)), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	step := max(16, width/32)
	for x := 0; x < max(width, height); x += step {
		for y := 0; y < height && x+y < width; y++ {
			img.Set(x+y, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// VideoPlaceholder returns text bytes standing in for a rendered clip.
func VideoPlaceholder(seed, prompt string) []byte {
	lines := []string{
		"synthetic video placeholder",
		"seed: " + seed,
		"prompt: " + strings.TrimSpace(prompt),
	}
	return []byte(strings.Join(lines, "\n"))
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Dimensions maps an aspect ratio such as "16:9" onto pixel dimensions.
func Dimensions(aspect string) (int, int) {
	switch strings.TrimSpace(strings.ToLower(aspect)) {
	case "16:9":
		return 1920, 1080
	case "9:16":
		return 1080, 1920
	case "4:5":
		return 1024, 1280
	case "3:2":
		return 1536, 1024
	case "1:1", "square", "":
		return 1024, 1024
	}
	w, h, ok := strings.Cut(aspect, ":")
	if ok {
		a, errA := strconv.Atoi(strings.TrimSpace(w))
		b, errB := strconv.Atoi(strings.TrimSpace(h))
		if errA == nil && errB == nil && a > 0 && b > 0 {
			return 1024, 1024 * b / a
		}
	}
	return 1024, 1024
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = fmt.Sprintf("%06s", seed)
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
