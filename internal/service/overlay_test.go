package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/releasetour/internal/storage"
)

func TestOverlayKey(t *testing.T) {
	require.Equal(t, "lesson-1.25-3-code", OverlayKey("1.25", 3))
}

func TestResolveFallsBackToCanonical(t *testing.T) {
	t.Parallel()
	s := NewOverlayStore(storage.NewMemory(), nil)
	got, err := s.Resolve(context.Background(), "1.25", 1, "canonical")
	require.NoError(t, err)
	require.Equal(t, "canonical", got)
}

func TestSaveIsVisibleBeforeFlush(t *testing.T) {
	t.Parallel()
	kv := storage.NewMemory()
	s := NewOverlayStore(kv, nil)
	ctx := context.Background()

	s.Save("1.25", 1, "first")
	s.Save("1.25", 1, "second")
	got, err := s.Resolve(ctx, "1.25", 1, "canonical")
	require.NoError(t, err)
	require.Equal(t, "second", got)

	_, err = kv.Get(ctx, OverlayKey("1.25", 1))
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Equal(t, 1, s.Pending())

	require.NoError(t, s.Flush(ctx))
	require.Zero(t, s.Pending())
	stored, err := kv.Get(ctx, OverlayKey("1.25", 1))
	require.NoError(t, err)
	require.Equal(t, "second", stored)
}

func TestLastWriteWinsAcrossSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "overlay.db")

	kv, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	s := NewOverlayStore(kv, nil)
	s.Save("1.22", 2, "v1")
	require.NoError(t, s.Flush(ctx))
	s.Save("1.22", 2, "v2")
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, kv.Close())

	kv, err = storage.OpenSQLite(path)
	require.NoError(t, err)
	defer kv.Close()
	s = NewOverlayStore(kv, nil)
	got, err := s.Resolve(ctx, "1.22", 2, "canonical")
	require.NoError(t, err)
	require.Equal(t, "v2", got)

	got, err = s.Resolve(ctx, "1.22", 3, "canonical")
	require.NoError(t, err)
	require.Equal(t, "canonical", got)
}

type failingKV struct {
	storage.KV
	err error
}

func (f failingKV) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingKV) SetMany(context.Context, map[string]string) error {
	return f.err
}

func TestFlushFailureKeepsEntriesStaged(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	s := NewOverlayStore(failingKV{KV: storage.NewMemory(), err: boom}, nil)
	ctx := context.Background()

	s.Save("1.25", 4, "edited")
	require.ErrorIs(t, s.Flush(ctx), boom)
	require.Equal(t, 1, s.Pending())

	got, err := s.Resolve(ctx, "1.25", 4, "canonical")
	require.NoError(t, err)
	require.Equal(t, "edited", got)

	got, err = s.Resolve(ctx, "1.25", 5, "canonical")
	require.ErrorIs(t, err, boom)
	require.Equal(t, "canonical", got)
}

func TestEdited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, OverlayKey("1.2", 9), "other version"))
	require.NoError(t, kv.Set(ctx, "lesson-1.25-notes", "not code"))
	s := NewOverlayStore(kv, nil)

	s.Save("1.25", 1, "a")
	require.NoError(t, s.Flush(ctx))
	s.Save("1.25", 3, "b")

	edited, err := s.Edited(ctx, "1.25")
	require.NoError(t, err)
	require.Equal(t, map[int]bool{1: true, 3: true}, edited)
}

func TestDiscardRestoresCanonical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := storage.NewMemory()
	s := NewOverlayStore(kv, nil)

	s.Save("1.25", 1, "mine")
	require.NoError(t, s.Flush(ctx))
	s.Discard("1.25", 1)

	got, err := s.Resolve(ctx, "1.25", 1, "canonical")
	require.NoError(t, err)
	require.Equal(t, "canonical", got, "discard is visible before flush")
	edited, err := s.Edited(ctx, "1.25")
	require.NoError(t, err)
	require.Empty(t, edited)

	require.NoError(t, s.Flush(ctx))
	require.Zero(t, s.Pending())
	_, err = kv.Get(ctx, OverlayKey("1.25", 1))
	require.ErrorIs(t, err, storage.ErrNotFound)

	s.Save("1.25", 1, "after reset")
	got, err = s.Resolve(ctx, "1.25", 1, "canonical")
	require.NoError(t, err)
	require.Equal(t, "after reset", got)
}

// blockingKV parks SetMany until release is closed.
type blockingKV struct {
	*storage.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingKV) SetMany(ctx context.Context, values map[string]string) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Memory.SetMany(ctx, values)
}

func TestSaveDuringFlushStaysStaged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := &blockingKV{
		Memory:  storage.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := NewOverlayStore(kv, nil)
	key := OverlayKey("1.25", 2)

	s.Save("1.25", 2, "v1")
	flushed := make(chan error, 1)
	go func() { flushed <- s.Flush(ctx) }()

	select {
	case <-kv.entered:
	case <-time.After(testTimeout):
		t.Fatal("flush never reached storage")
	}
	s.Save("1.25", 2, "v2")
	close(kv.release)
	require.NoError(t, <-flushed)

	require.Equal(t, 1, s.Pending(), "the newer save is still staged")
	got, err := s.Resolve(ctx, "1.25", 2, "canonical")
	require.NoError(t, err)
	require.Equal(t, "v2", got)
	stored, err := kv.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "v1", stored)

	require.NoError(t, s.Flush(ctx))
	require.Zero(t, s.Pending())
	stored, err = kv.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "v2", stored)
}
