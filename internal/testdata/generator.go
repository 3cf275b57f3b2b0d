// Package testdata generates sample lessons and serves them from an in-process
// catalog and execution service for tests.
package testdata

import (
	"fmt"

	"github.com/jask/releasetour/internal/tour"
)

var topics = []string{
	"Generics", "Iterators", "Structured Logging", "Range over Integers",
	"Loop Variables", "slices Package", "maps Package", "errors.Join",
}

// Lessons returns n lessons for version with ids 1..n.
func Lessons(version string, n int) []tour.Lesson {
	out := make([]tour.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		topic := topics[(i-1)%len(topics)]
		out = append(out, tour.Lesson{
			ID:          i,
			Version:     version,
			Title:       fmt.Sprintf("%s %d", topic, i),
			Description: fmt.Sprintf("Lesson %d of the %s tour.", i, version),
			Stars:       1 + (i-1)%tour.MaxStars,
			Code:        fmt.Sprintf("//go:build ignore\n\npackage main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(%q)\n}\n", topic),
			Filename:    fmt.Sprintf("%02d_lesson.go", i),
			FilePath:    fmt.Sprintf("releases/v/%s/%02d_lesson.go", version, i),
			EnvPresets: []tour.EnvPreset{
				{Name: "default", Value: "", Description: "no extra environment"},
			},
		})
	}
	return out
}
