// Package tour holds the lesson and version types shared by the catalog client,
// the session core and the terminal UI.
package tour

import (
	"strconv"
	"strings"
)

// DefaultVersion is the latest release covered by the tour.
const DefaultVersion = "1.25"

// MaxStars is the top of the lesson rating scale.
const MaxStars = 5

// EnvPreset is a named environment variable setting suggested for a lesson.
type EnvPreset struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Lesson is one tutorial unit bound to a version. Identity is (Version, ID).
type Lesson struct {
	ID          int         `json:"id"`
	Version     string      `json:"version"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Stars       int         `json:"stars"`
	Code        string      `json:"code"`
	Filename    string      `json:"filename,omitempty"`
	FilePath    string      `json:"file_path,omitempty"`
	EnvPresets  []EnvPreset `json:"env_presets,omitempty"`
}

// Key identifies a lesson across versions.
type Key struct {
	Version string
	ID      int
}

func (l Lesson) Key() Key { return Key{Version: l.Version, ID: l.ID} }

func (k Key) String() string { return k.Version + "#" + strconv.Itoa(k.ID) }

var buildIgnore = strings.NewReplacer("//go:build ignore\n", "", "// +build ignore\n", "")

// EditorCode is the canonical code as shown in the editor: lesson sources are
// stored with build-ignore constraints that mean nothing to the reader.
func (l Lesson) EditorCode() string {
	return buildIgnore.Replace(l.Code)
}

// StarBar renders the rating as filled and empty stars.
func StarBar(stars int) string {
	stars = ClampStars(stars)
	return strings.Repeat("★", stars) + strings.Repeat("☆", MaxStars-stars)
}

func ClampStars(stars int) int {
	switch {
	case stars < 0:
		return 0
	case stars > MaxStars:
		return MaxStars
	}
	return stars
}
