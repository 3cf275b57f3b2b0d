package service

import (
	"context"
	"sync"

	"github.com/jask/releasetour/internal/api"
	"github.com/jask/releasetour/internal/tour"
)

type fakeCatalog struct {
	mu      sync.Mutex
	lessons map[string][]tour.Lesson
	errs    map[string]error
	calls   map[string]int
	gate    chan struct{}
}

func newFakeCatalog(lessons map[string][]tour.Lesson) *fakeCatalog {
	return &fakeCatalog{lessons: lessons, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeCatalog) Lessons(ctx context.Context, version string) ([]tour.Lesson, error) {
	f.mu.Lock()
	f.calls[version]++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[version]; err != nil {
		return nil, err
	}
	return f.lessons[version], nil
}

func (f *fakeCatalog) Calls(version string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[version]
}

type fakeRunner struct {
	mu    sync.Mutex
	resp  api.RunResponse
	err   error
	reqs  []api.RunRequest
	onRun func()
}

func (f *fakeRunner) Run(ctx context.Context, req api.RunRequest) (api.RunResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	onRun := f.onRun
	f.mu.Unlock()
	if onRun != nil {
		onRun()
	}
	return f.resp, f.err
}

func (f *fakeRunner) Requests() []api.RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.RunRequest(nil), f.reqs...)
}
