package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/namisearch/nami/internal/search"
)

func responseFor(title string) search.Response {
	return search.Response{
		GlobalResults:  []search.Result{{Title: title, URL: "https://example.com/" + title + ".pdf"}},
		ArchiveResults: []search.Result{},
	}
}

func TestResultCache_PutThenGet(t *testing.T) {
	t.Parallel()
	c := New(4, time.Minute)
	key := Key{Query: "machine learning", NumResults: 5}

	c.Put(key, responseFor("ml"))
	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, "ml", got.GlobalResults[0].Title)
}

func TestResultCache_KeysAreExact(t *testing.T) {
	t.Parallel()
	c := New(4, time.Minute)
	c.Put(Key{Query: "machine learning", NumResults: 5}, responseFor("ml"))

	// Case and requested count are part of the key.
	_, ok := c.Get(Key{Query: "Machine Learning", NumResults: 5})
	require.False(t, ok)
	_, ok = c.Get(Key{Query: "machine learning", NumResults: 10})
	require.False(t, ok)
}

func TestResultCache_ExpiredEntryIsMasked(t *testing.T) {
	t.Parallel()
	c := New(4, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	key := Key{Query: "q", NumResults: 1}
	c.Put(key, responseFor("fresh"))

	now = now.Add(59 * time.Second)
	_, ok := c.Get(key)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(key)
	require.False(t, ok)
	require.Zero(t, c.Len(), "expired entry should be evicted on read")
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	c := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Put(Key{Query: fmt.Sprintf("q%d", i), NumResults: 1}, responseFor(fmt.Sprintf("r%d", i)))
	}

	// Touch q0 so q1 becomes the LRU entry.
	_, ok := c.Get(Key{Query: "q0", NumResults: 1})
	require.True(t, ok)

	c.Put(Key{Query: "q3", NumResults: 1}, responseFor("r3"))
	require.Equal(t, 3, c.Len())

	_, ok = c.Get(Key{Query: "q1", NumResults: 1})
	require.False(t, ok, "LRU entry should have been evicted")
	for _, q := range []string{"q0", "q2", "q3"} {
		_, ok := c.Get(Key{Query: q, NumResults: 1})
		require.True(t, ok, q)
	}
}

func TestResultCache_PutRefreshesExistingEntry(t *testing.T) {
	t.Parallel()
	c := New(2, time.Minute)
	key := Key{Query: "q", NumResults: 1}

	c.Put(key, responseFor("old"))
	c.Put(key, responseFor("new"))
	require.Equal(t, 1, c.Len())

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, "new", got.GlobalResults[0].Title)
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New(16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Key{Query: fmt.Sprintf("q%d", n%4), NumResults: 1}
			for j := 0; j < 100; j++ {
				c.Put(key, responseFor("r"))
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	require.LessOrEqual(t, c.Len(), 4)
}
