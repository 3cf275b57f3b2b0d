package tour

import (
	"sort"
	"strconv"
	"strings"
)

// Badge classifies a release on the welcome screen.
type Badge string

const (
	BadgeLatest       Badge = "latest"
	BadgeStable       Badge = "stable"
	BadgeFoundation   Badge = "foundation"
	BadgeImprovement  Badge = "improvement"
	BadgeExperimental Badge = "experimental"
	BadgeBreakthrough Badge = "breakthrough"
	BadgeNew          Badge = "new"
)

// Highlight is a headline feature of a release.
type Highlight struct {
	Title string
	Stars int
}

// VersionInfo describes one version card.
type VersionInfo struct {
	Version    string
	Label      string
	Badge      Badge
	Highlights []Highlight
}

var knownVersions = []VersionInfo{
	{Version: "1.25", Label: "Go 1.25 (latest)", Badge: BadgeLatest, Highlights: []Highlight{
		{"Container-aware GOMAXPROCS", 5}, {"testing/synctest Package", 5}, {"Trace Flight Recorder", 4},
	}},
	{Version: "1.24", Label: "Go 1.24", Badge: BadgeStable, Highlights: []Highlight{
		{"Generic Type Aliases", 5}, {"testing.B Loop", 4}, {"os.Root", 4},
	}},
	{Version: "1.23", Label: "Go 1.23", Badge: BadgeStable, Highlights: []Highlight{
		{"Structured Logging (slog)", 5}, {"Iterators", 5}, {"Timer Reset", 4},
	}},
	{Version: "1.22", Label: "Go 1.22", Badge: BadgeFoundation, Highlights: []Highlight{
		{"For Range over Integers", 5}, {"Enhanced Loop Variables", 5}, {"math/rand/v2", 4},
	}},
	{Version: "1.21", Label: "Go 1.21", Badge: BadgeFoundation, Highlights: []Highlight{
		{"Built-in Functions (min/max/clear)", 5}, {"slices Package", 5}, {"maps Package", 5},
	}},
	{Version: "1.20", Label: "Go 1.20", Badge: BadgeImprovement, Highlights: []Highlight{
		{"Comparable Types Enhancement", 4}, {"Slice to Array Conversion", 4}, {"errors.Join", 3},
	}},
	{Version: "1.19", Label: "Go 1.19", Badge: BadgeExperimental, Highlights: []Highlight{
		{"Memory Arenas", 3}, {"Atomic Types", 3},
	}},
	{Version: "1.18", Label: "Go 1.18 (Generics)", Badge: BadgeBreakthrough, Highlights: []Highlight{
		{"Generics (Type Parameters)", 5}, {"Type Constraints", 5}, {"Workspace Mode", 4},
	}},
}

// KnownVersions returns the built-in version cards, newest first.
func KnownVersions() []VersionInfo {
	out := make([]VersionInfo, len(knownVersions))
	copy(out, knownVersions)
	return out
}

// MergeVersions adds versions reported by the catalog that have no built-in
// card and returns the result newest first.
func MergeVersions(known []VersionInfo, remote []string) []VersionInfo {
	seen := make(map[string]bool, len(known))
	out := make([]VersionInfo, 0, len(known)+len(remote))
	for _, v := range known {
		seen[v.Version] = true
		out = append(out, v)
	}
	for _, v := range remote {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, VersionInfo{Version: v, Label: "Go " + v, Badge: BadgeNew})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i].Version, out[j].Version) > 0
	})
	return out
}

// CompareVersions orders "major.minor" strings numerically. Unparseable parts
// compare as zero.
func CompareVersions(a, b string) int {
	am, an := splitVersion(a)
	bm, bn := splitVersion(b)
	switch {
	case am != bm:
		return cmpInt(am, bm)
	default:
		return cmpInt(an, bn)
	}
}

func splitVersion(v string) (int, int) {
	major, minor, _ := strings.Cut(strings.TrimSpace(v), ".")
	ma, _ := strconv.Atoi(major)
	mi, _ := strconv.Atoi(minor)
	return ma, mi
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
