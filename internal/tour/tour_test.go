package tour

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEditorCodeStripsBuildIgnore(t *testing.T) {
	l := Lesson{Code: "//go:build ignore\n// +build ignore\n\npackage main\n"}
	require.Equal(t, "\npackage main\n", l.EditorCode())

	plain := Lesson{Code: "package main\n\n//go:build linux\n"}
	require.Equal(t, plain.Code, plain.EditorCode())
}

func TestStarBar(t *testing.T) {
	tests := []struct {
		stars int
		want  string
	}{
		{0, "☆☆☆☆☆"},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
		{9, "★★★★★"},
		{-2, "☆☆☆☆☆"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, StarBar(tc.stars), "stars=%d", tc.stars)
	}
}

func TestKnownVersionsNewestFirst(t *testing.T) {
	vs := KnownVersions()
	require.Equal(t, DefaultVersion, vs[0].Version)
	require.Equal(t, BadgeLatest, vs[0].Badge)
	for i := 1; i < len(vs); i++ {
		require.Positive(t, CompareVersions(vs[i-1].Version, vs[i].Version))
	}

	vs[0].Label = "mutated"
	require.NotEqual(t, "mutated", KnownVersions()[0].Label)
}

func TestMergeVersions(t *testing.T) {
	known := []VersionInfo{{Version: "1.25"}, {Version: "1.24"}}
	got := MergeVersions(known, []string{"1.24", " 1.26 ", "", "1.9"})
	versions := make([]string, 0, len(got))
	for _, v := range got {
		versions = append(versions, v.Version)
	}
	require.Equal(t, []string{"1.26", "1.25", "1.24", "1.9"}, versions)
	require.Equal(t, BadgeNew, got[0].Badge)
}

func TestCompareVersions(t *testing.T) {
	require.Equal(t, 1, CompareVersions("1.10", "1.9"))
	require.Equal(t, -1, CompareVersions("1.18", "2.0"))
	require.Equal(t, 0, CompareVersions("1.25", "1.25"))
}

func TestKeyString(t *testing.T) {
	require.Equal(t, "1.22#3", Lesson{Version: "1.22", ID: 3}.Key().String())
}
