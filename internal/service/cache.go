package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/tour"
)

// Catalog fetches the ordered lesson list for a version.
type Catalog interface {
	Lessons(ctx context.Context, version string) ([]tour.Lesson, error)
}

// LessonCache maps version -> ordered lessons. A version is stored only after a
// successful fetch and is only fetched again through an explicit Refresh.
type LessonCache struct {
	catalog Catalog
	log     *logger.Logger
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string][]tour.Lesson
}

func NewLessonCache(catalog Catalog, log *logger.Logger) *LessonCache {
	if log == nil {
		log = logger.Nop()
	}
	return &LessonCache{
		catalog: catalog,
		log:     log.With("component", "lesson_cache"),
		entries: make(map[string][]tour.Lesson),
	}
}

// EnsureLoaded returns the lessons for version, fetching them once if needed.
// Concurrent callers for the same uncached version share one fetch.
func (c *LessonCache) EnsureLoaded(ctx context.Context, version string) ([]tour.Lesson, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, &ValidationError{Field: "version", Reason: "must not be empty"}
	}
	if lessons, ok := c.Lookup(version); ok {
		return lessons, nil
	}
	v, err, shared := c.group.Do(version, func() (any, error) {
		if lessons, ok := c.Lookup(version); ok {
			return lessons, nil
		}
		fetched, err := c.catalog.Lessons(ctx, version)
		if err != nil {
			return nil, err
		}
		lessons, err := normalizeCatalog(version, fetched)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.entries[version]; ok {
			return existing, nil
		}
		c.entries[version] = lessons
		c.log.Info("lessons cached", "version", version, "count", len(lessons))
		return lessons, nil
	})
	if err != nil {
		c.log.Warn("lesson fetch failed", "version", version, "error", err, "shared", shared)
		return nil, &CatalogFetchError{Version: version, Cause: err}
	}
	return slices.Clone(v.([]tour.Lesson)), nil
}

// Lookup returns the cached list for version without any I/O.
func (c *LessonCache) Lookup(version string) ([]tour.Lesson, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lessons, ok := c.entries[version]
	if !ok {
		return nil, false
	}
	return slices.Clone(lessons), true
}

// Get is a pure lookup of one lesson.
func (c *LessonCache) Get(version string, id int) (tour.Lesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.entries[version] {
		if l.ID == id {
			return l, nil
		}
	}
	return tour.Lesson{}, fmt.Errorf("%w: Go %s lesson %d", ErrLessonNotFound, version, id)
}

// Refresh refetches version and replaces the cached list on success. On
// failure the previous list, if any, stays in place.
func (c *LessonCache) Refresh(ctx context.Context, version string) ([]tour.Lesson, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, &ValidationError{Field: "version", Reason: "must not be empty"}
	}
	v, err, _ := c.group.Do("refresh:"+version, func() (any, error) {
		fetched, err := c.catalog.Lessons(ctx, version)
		if err != nil {
			return nil, err
		}
		lessons, err := normalizeCatalog(version, fetched)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[version] = lessons
		c.mu.Unlock()
		c.log.Info("lessons refreshed", "version", version, "count", len(lessons))
		return lessons, nil
	})
	if err != nil {
		c.log.Warn("lesson refresh failed", "version", version, "error", err)
		return nil, &CatalogFetchError{Version: version, Cause: err}
	}
	return slices.Clone(v.([]tour.Lesson)), nil
}

// normalizeCatalog rejects payloads that break lesson identity and fills
// fields the catalog may omit.
func normalizeCatalog(version string, lessons []tour.Lesson) ([]tour.Lesson, error) {
	out := make([]tour.Lesson, 0, len(lessons))
	seen := make(map[int]bool, len(lessons))
	for i, l := range lessons {
		if seen[l.ID] {
			return nil, fmt.Errorf("malformed catalog: duplicate lesson id %d", l.ID)
		}
		seen[l.ID] = true
		switch strings.TrimSpace(l.Version) {
		case "":
			l.Version = version
		case version:
			l.Version = version
		default:
			return nil, fmt.Errorf("malformed catalog: lesson %d (index %d) belongs to Go %s", l.ID, i, l.Version)
		}
		l.Stars = tour.ClampStars(l.Stars)
		out = append(out, l)
	}
	return out, nil
}
