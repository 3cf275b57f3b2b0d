package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/storage"
)

// OverlayKey is the storage key of the saved code for one lesson.
func OverlayKey(version string, id int) string {
	return fmt.Sprintf("lesson-%s-%d-code", version, id)
}

func overlayPrefix(version string) string {
	return "lesson-" + version + "-"
}

// OverlayStore layers saved code over canonical lesson code. Saves and
// discards are staged in memory, so a read right after either observes it even
// before Flush has persisted it.
type OverlayStore struct {
	kv  storage.KV
	log *logger.Logger

	mu      sync.Mutex
	pending map[string]staged

	flushMu sync.Mutex
}

// staged is one unpersisted change. removed marks a discard.
type staged struct {
	code    string
	removed bool
}

func NewOverlayStore(kv storage.KV, log *logger.Logger) *OverlayStore {
	if log == nil {
		log = logger.Nop()
	}
	return &OverlayStore{
		kv:      kv,
		log:     log.With("component", "overlay_store"),
		pending: make(map[string]staged),
	}
}

// Save records code for the lesson; the latest save wins.
func (s *OverlayStore) Save(version string, id int, code string) {
	s.mu.Lock()
	s.pending[OverlayKey(version, id)] = staged{code: code}
	s.mu.Unlock()
}

// Discard drops the saved code for the lesson so it reads as canonical again.
func (s *OverlayStore) Discard(version string, id int) {
	s.mu.Lock()
	s.pending[OverlayKey(version, id)] = staged{removed: true}
	s.mu.Unlock()
}

// Pending reports how many changes have not been persisted yet.
func (s *OverlayStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush persists staged changes. An entry changed again while the flush runs
// stays staged for the next flush.
func (s *OverlayStore) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	batch := maps.Clone(s.pending)
	s.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	writes := make(map[string]string, len(batch))
	var removals []string
	for k, e := range batch {
		if e.removed {
			removals = append(removals, k)
		} else {
			writes[k] = e.code
		}
	}
	if err := s.kv.SetMany(ctx, writes); err != nil {
		s.log.Error("overlay flush failed", "entries", len(batch), "error", err)
		return fmt.Errorf("save code: %w", err)
	}
	done := slices.Collect(maps.Keys(writes))
	for _, k := range removals {
		if err := s.kv.Delete(ctx, k); err != nil {
			s.forget(batch, done)
			s.log.Error("overlay discard failed", "key", k, "error", err)
			return fmt.Errorf("discard code: %w", err)
		}
		done = append(done, k)
	}
	s.forget(batch, done)
	s.log.Debug("overlays flushed", "entries", len(batch))
	return nil
}

// forget unstages the persisted keys whose entry did not change meanwhile.
func (s *OverlayStore) forget(batch map[string]staged, done []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range done {
		if s.pending[k] == batch[k] {
			delete(s.pending, k)
		}
	}
}

// Resolve returns the saved code for the lesson, or canonical when nothing was
// saved. On a storage failure it returns canonical together with the error.
func (s *OverlayStore) Resolve(ctx context.Context, version string, id int, canonical string) (string, error) {
	key := OverlayKey(version, id)
	s.mu.Lock()
	e, ok := s.pending[key]
	s.mu.Unlock()
	if ok {
		if e.removed {
			return canonical, nil
		}
		return e.code, nil
	}

	code, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return canonical, nil
	case err != nil:
		return canonical, fmt.Errorf("read saved code: %w", err)
	}
	return code, nil
}

// Edited lists the ids of lessons in version that have saved code.
func (s *OverlayStore) Edited(ctx context.Context, version string) (map[int]bool, error) {
	prefix := overlayPrefix(version)
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list saved code: %w", err)
	}
	out := make(map[int]bool, len(keys))
	for _, k := range keys {
		if id, ok := overlayID(prefix, k); ok {
			out[id] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.pending {
		id, ok := overlayID(prefix, k)
		switch {
		case !ok:
		case e.removed:
			delete(out, id)
		default:
			out[id] = true
		}
	}
	return out, nil
}

func overlayID(prefix, key string) (int, bool) {
	raw, ok := strings.CutSuffix(strings.TrimPrefix(key, prefix), "-code")
	if !ok || !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
