package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowDecision() Decision {
	return Decision{Allowed: true, Verdict: VerdictAllow}
}

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint("alice@example.com", "analyze_prompt", "gpt-4-turbo")
	b := Fingerprint("alice@example.com", "analyze_prompt", "gpt-4-turbo")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint("bob@example.com", "analyze_prompt", "gpt-4-turbo"))
	assert.NotEqual(t, a, Fingerprint("alice@example.com", "analyze_response", "gpt-4-turbo"))

	// Field boundaries matter: shifting a character across the separator
	// must change the key.
	assert.NotEqual(t, Fingerprint("ab", "c", ""), Fingerprint("a", "bc", ""))
}

func TestCacheSetGet(t *testing.T) {
	c := NewCache(10, time.Minute)
	c.Set("k1", allowDecision())

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, VerdictAllow, got.Verdict)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheNeverStoresReview(t *testing.T) {
	c := NewCache(10, time.Minute)
	c.Set("k1", Decision{Verdict: VerdictReview})

	_, ok := c.Get("k1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())

	c.Set("k2", Decision{Verdict: VerdictBlock, Allowed: false})
	got, ok := c.Get("k2")
	require.True(t, ok)
	assert.Equal(t, VerdictBlock, got.Verdict)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(10, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("k1", allowDecision())

	_, ok := c.Get("k1")
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = c.Get("k1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(2, time.Minute)
	c.Set("k1", allowDecision())
	c.Set("k2", allowDecision())

	// Touch k1 so k2 becomes the eviction candidate.
	_, ok := c.Get("k1")
	require.True(t, ok)

	c.Set("k3", allowDecision())

	_, ok = c.Get("k2")
	assert.False(t, ok)
	_, ok = c.Get("k1")
	assert.True(t, ok)
	_, ok = c.Get("k3")
	assert.True(t, ok)
}

func TestCachePurge(t *testing.T) {
	c := NewCache(10, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("old", allowDecision())
	c.now = func() time.Time { return base.Add(30 * time.Second) }
	c.Set("fresh", allowDecision())

	c.now = func() time.Time { return base.Add(70 * time.Second) }
	c.Purge()

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestCacheSetRefreshesExisting(t *testing.T) {
	c := NewCache(10, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("k1", allowDecision())
	c.now = func() time.Time { return base.Add(50 * time.Second) }
	c.Set("k1", Decision{Verdict: VerdictBlock})

	c.now = func() time.Time { return base.Add(100 * time.Second) }
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, VerdictBlock, got.Verdict)
	assert.Equal(t, 1, c.Len())
}
