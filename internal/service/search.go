package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/releasetour/internal/tour"
)

// SearchLessons ranks lessons by how well their title matches query. Substring
// matches come first, then titles with a word within a small edit distance.
// An empty query returns lessons unchanged.
func SearchLessons(lessons []tour.Lesson, query string, limit int) []tour.Lesson {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clip(lessons, limit)
	}
	type scored struct {
		lesson tour.Lesson
		score  int
		index  int
	}
	threshold := max(1, len(q)/3)
	var hits []scored
	for i, l := range lessons {
		title := strings.ToLower(l.Title)
		switch {
		case strconv.Itoa(l.ID) == q:
			hits = append(hits, scored{l, -1, i})
		case strings.Contains(title, q):
			hits = append(hits, scored{l, 0, i})
		default:
			best := levenshtein.ComputeDistance(q, title)
			for _, w := range strings.Fields(title) {
				if d := levenshtein.ComputeDistance(q, w); d < best {
					best = d
				}
			}
			if best <= threshold {
				hits = append(hits, scored{l, best, i})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].index < hits[j].index
	})
	out := make([]tour.Lesson, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.lesson)
	}
	return clip(out, limit)
}

func clip(lessons []tour.Lesson, limit int) []tour.Lesson {
	if limit > 0 && len(lessons) > limit {
		return lessons[:limit]
	}
	return lessons
}
