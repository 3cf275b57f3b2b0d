package service

import (
	"regexp"
	"strings"

	"github.com/jask/releasetour/internal/tour"
)

// VersionSource names the step of the fallback chain that picked a version.
type VersionSource string

const (
	SourceSelector VersionSource = "selector"
	SourceCode     VersionSource = "code"
	SourcePath     VersionSource = "path"
	SourceDefault  VersionSource = "default"
)

var (
	codeVersionRe = regexp.MustCompile(`\bGo[ \t]+(\d+\.\d+)`)
	pathVersionRe = regexp.MustCompile(`/v/(\d+\.\d+)/`)
)

// ResolveInput carries everything a submission's version can be derived from.
type ResolveInput struct {
	SelectorVersion string
	Code            string
	LessonFilePath  string
}

// VersionResolver picks the target version of a submission: an explicit
// selector, then a "Go N.N" mention in the code, then a /v/N.N/ path segment,
// then the default.
type VersionResolver struct {
	Default string
}

func NewVersionResolver(defaultVersion string) *VersionResolver {
	if strings.TrimSpace(defaultVersion) == "" {
		defaultVersion = tour.DefaultVersion
	}
	return &VersionResolver{Default: strings.TrimSpace(defaultVersion)}
}

// Resolve never returns an empty string.
func (r *VersionResolver) Resolve(in ResolveInput) string {
	v, _ := r.ResolveSource(in)
	return v
}

func (r *VersionResolver) ResolveSource(in ResolveInput) (string, VersionSource) {
	if v := strings.TrimSpace(in.SelectorVersion); v != "" {
		return v, SourceSelector
	}
	if m := codeVersionRe.FindStringSubmatch(in.Code); m != nil {
		return m[1], SourceCode
	}
	if m := pathVersionRe.FindStringSubmatch(in.LessonFilePath); m != nil {
		return m[1], SourcePath
	}
	if r.Default == "" {
		return tour.DefaultVersion, SourceDefault
	}
	return r.Default, SourceDefault
}
