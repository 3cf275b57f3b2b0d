package testdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jask/releasetour/internal/api"
	"github.com/jask/releasetour/internal/tour"
)

// RunFunc computes the execution service answer for a request.
type RunFunc func(req api.RunRequest) (api.RunResponse, int)

// Server is a fake catalog and execution service.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	catalog      map[string][]tour.Lesson
	failures     map[string]int
	lessonCalls  map[string]int
	runs         []api.RunRequest
	runFn        RunFunc
	lastClientID string
}

// NewServer starts a server seeded with catalog and closes it when t ends.
func NewServer(t testing.TB, catalog map[string][]tour.Lesson) *Server {
	t.Helper()
	s := &Server{
		catalog:     catalog,
		failures:    map[string]int{},
		lessonCalls: map[string]int{},
		runFn:       Echo,
	}
	if s.catalog == nil {
		s.catalog = map[string][]tour.Lesson{}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions", s.handleVersions)
	mux.HandleFunc("/api/lessons", s.handleLessons)
	mux.HandleFunc("/api/run", s.handleRun)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Echo answers every run with the submitted version and a fixed output.
func Echo(req api.RunRequest) (api.RunResponse, int) {
	return api.RunResponse{Output: "ok\n", UsedVersion: req.Version, ExecutionTime: "12ms"}, http.StatusOK
}

func (s *Server) SetRun(fn RunFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runFn = fn
}

// FailLessons makes lesson requests for version answer with status until cleared with 0.
func (s *Server) FailLessons(version string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, version)
		return
	}
	s.failures[version] = status
}

func (s *Server) LessonCalls(version string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessonCalls[version]
}

func (s *Server) Runs() []api.RunRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.RunRequest(nil), s.runs...)
}

func (s *Server) LastClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClientID
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	versions := make([]string, 0, len(s.catalog))
	for v := range s.catalog {
		versions = append(versions, v)
	}
	s.mu.Unlock()
	sort.Slice(versions, func(i, j int) bool { return tour.CompareVersions(versions[i], versions[j]) > 0 })
	writeJSON(w, http.StatusOK, versions)
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	version := strings.TrimSpace(r.URL.Query().Get("version"))
	s.mu.Lock()
	s.lessonCalls[version]++
	s.lastClientID = r.Header.Get("X-Client-ID")
	status := s.failures[version]
	lessons, ok := s.catalog[version]
	s.mu.Unlock()

	switch {
	case version == "":
		http.Error(w, "Version parameter is required", http.StatusBadRequest)
	case status != 0:
		http.Error(w, "catalog unavailable", status)
	case !ok:
		http.Error(w, "Version not found", http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, lessons)
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req api.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.runs = append(s.runs, req)
	s.lastClientID = r.Header.Get("X-Client-ID")
	fn := s.runFn
	s.mu.Unlock()

	resp, status := fn(req)
	if status != http.StatusOK {
		http.Error(w, "execution backend unavailable", status)
		return
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
