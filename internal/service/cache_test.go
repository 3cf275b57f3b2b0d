package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/releasetour/internal/testdata"
	"github.com/jask/releasetour/internal/tour"
)

func TestEnsureLoadedCachesAfterFirstFetch(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(map[string][]tour.Lesson{"1.24": testdata.Lessons("1.24", 3)})
	cache := NewLessonCache(cat, nil)
	ctx := context.Background()

	first, err := cache.EnsureLoaded(ctx, "1.24")
	require.NoError(t, err)
	second, err := cache.EnsureLoaded(ctx, "1.24")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, cat.Calls("1.24"))
	require.Equal(t, []int{1, 2, 3}, []int{first[0].ID, first[1].ID, first[2].ID})
}

func TestEnsureLoadedFailureLeavesVersionUncached(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(map[string][]tour.Lesson{"1.23": testdata.Lessons("1.23", 2)})
	boom := errors.New("connection refused")
	cat.errs["1.23"] = boom
	cache := NewLessonCache(cat, nil)
	ctx := context.Background()

	_, err := cache.EnsureLoaded(ctx, "1.23")
	var fe *CatalogFetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "1.23", fe.Version)
	require.ErrorIs(t, err, boom)
	_, ok := cache.Lookup("1.23")
	require.False(t, ok)

	cat.mu.Lock()
	delete(cat.errs, "1.23")
	cat.mu.Unlock()

	lessons, err := cache.EnsureLoaded(ctx, "1.23")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.Equal(t, 2, cat.Calls("1.23"))
}

func TestEnsureLoadedCoalescesConcurrentFetches(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(map[string][]tour.Lesson{"1.22": testdata.Lessons("1.22", 2)})
	cat.gate = make(chan struct{})
	cache := NewLessonCache(cat, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]tour.Lesson, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.EnsureLoaded(context.Background(), "1.22")
		}(i)
	}
	require.Eventually(t, func() bool { return cat.Calls("1.22") >= 1 }, testTimeout, testTick)
	close(cat.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 2)
	}
	require.Equal(t, 1, cat.Calls("1.22"))
	cached, ok := cache.Lookup("1.22")
	require.True(t, ok)
	require.Len(t, cached, 2)
}

func TestEnsureLoadedRejectsMalformedCatalog(t *testing.T) {
	t.Parallel()
	dup := testdata.Lessons("1.21", 2)
	dup[1].ID = dup[0].ID
	wrong := testdata.Lessons("1.20", 1)
	wrong[0].Version = "1.19"

	cat := newFakeCatalog(map[string][]tour.Lesson{"1.21": dup, "1.20": wrong})
	cache := NewLessonCache(cat, nil)

	for _, v := range []string{"1.21", "1.20"} {
		_, err := cache.EnsureLoaded(context.Background(), v)
		var fe *CatalogFetchError
		require.ErrorAs(t, err, &fe, v)
		_, ok := cache.Lookup(v)
		require.False(t, ok, v)
	}
}

func TestEnsureLoadedNormalizesLessons(t *testing.T) {
	t.Parallel()
	lessons := []tour.Lesson{{ID: 7, Title: "No version", Stars: 11}, {ID: 3, Version: "1.25", Stars: -1}}
	cache := NewLessonCache(newFakeCatalog(map[string][]tour.Lesson{"1.25": lessons}), nil)

	got, err := cache.EnsureLoaded(context.Background(), "1.25")
	require.NoError(t, err)
	require.Equal(t, "1.25", got[0].Version)
	require.Equal(t, tour.MaxStars, got[0].Stars)
	require.Equal(t, 0, got[1].Stars)
	require.Equal(t, 7, got[0].ID, "catalog order is display order")
}

func TestEnsureLoadedEmptyVersion(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(nil)
	_, err := NewLessonCache(cat, nil).EnsureLoaded(context.Background(), "  ")
	require.True(t, IsValidation(err))
	require.Zero(t, cat.Calls(""))
}

func TestGet(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(map[string][]tour.Lesson{"1.24": testdata.Lessons("1.24", 2)})
	cache := NewLessonCache(cat, nil)

	_, err := cache.Get("1.24", 1)
	require.ErrorIs(t, err, ErrLessonNotFound)

	_, err = cache.EnsureLoaded(context.Background(), "1.24")
	require.NoError(t, err)
	l, err := cache.Get("1.24", 2)
	require.NoError(t, err)
	require.Equal(t, 2, l.ID)
	_, err = cache.Get("1.24", 9)
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	cat := newFakeCatalog(map[string][]tour.Lesson{"1.24": testdata.Lessons("1.24", 2)})
	cache := NewLessonCache(cat, nil)
	ctx := context.Background()

	_, err := cache.EnsureLoaded(ctx, "1.24")
	require.NoError(t, err)

	cat.mu.Lock()
	cat.lessons["1.24"] = testdata.Lessons("1.24", 1)
	cat.errs["1.24"] = errors.New("catalog down")
	cat.mu.Unlock()

	_, err = cache.Refresh(ctx, "1.24")
	var fe *CatalogFetchError
	require.ErrorAs(t, err, &fe)
	kept, ok := cache.Lookup("1.24")
	require.True(t, ok)
	require.Len(t, kept, 2, "failed refresh keeps the previous list")

	cat.mu.Lock()
	delete(cat.errs, "1.24")
	cat.mu.Unlock()

	got, err := cache.Refresh(ctx, "1.24")
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, err = cache.Get("1.24", 2)
	require.ErrorIs(t, err, ErrLessonNotFound)
	require.Equal(t, 3, cat.Calls("1.24"))
}

func TestLookupReturnsCopy(t *testing.T) {
	t.Parallel()
	cache := NewLessonCache(newFakeCatalog(map[string][]tour.Lesson{"1.24": testdata.Lessons("1.24", 2)}), nil)
	got, err := cache.EnsureLoaded(context.Background(), "1.24")
	require.NoError(t, err)
	got[0].Title = "mutated"

	again, _ := cache.Lookup("1.24")
	require.NotEqual(t, "mutated", again[0].Title)
}
