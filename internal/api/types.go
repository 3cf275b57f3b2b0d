package api

import (
	"errors"
	"fmt"
	"strings"
)

// RunRequest is the body of POST /api/run.
type RunRequest struct {
	Code    string `json:"code"`
	Version string `json:"version"`
}

// RunResponse is the body returned by POST /api/run. Every field is optional.
type RunResponse struct {
	Output          string `json:"output"`
	Error           string `json:"error,omitempty"`
	GoVersion       string `json:"go_version,omitempty"`
	UsedVersion     string `json:"used_version,omitempty"`
	DetectedVersion string `json:"detected_version,omitempty"`
	ExecutionTime   string `json:"execution_time,omitempty"`
	VersionPath     string `json:"version_path,omitempty"`
}

// RunVersion folds the go_version/used_version aliases into one value,
// preferring go_version.
func (r RunResponse) RunVersion() string {
	if v := strings.TrimSpace(r.GoVersion); v != "" {
		return v
	}
	return strings.TrimSpace(r.UsedVersion)
}

// ErrMalformedPayload marks a 2xx response whose body could not be decoded.
var ErrMalformedPayload = errors.New("api: malformed payload")

// StatusError reports a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, body)
}
