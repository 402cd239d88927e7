package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(10*time.Minute, 5*time.Minute, zap.NewNop())
	s.now = func() time.Time { return now }
	return s, &now
}

func TestGetWithinTTL(t *testing.T) {
	s, now := newTestStore(t)

	s.Set("url-a", []byte(`{"a":1}`))

	*now = now.Add(9 * time.Minute)
	entry, ok := s.Get("url-a")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), entry.Data)
}

func TestGetPastTTLMissesButStaleSurvives(t *testing.T) {
	s, now := newTestStore(t)

	s.Set("url-a", []byte("payload"))
	*now = now.Add(11 * time.Minute)

	_, ok := s.Get("url-a")
	assert.False(t, ok, "expired entry must not be returned as fresh")

	entry, ok := s.GetStale("url-a")
	require.True(t, ok, "expired entry must survive as fallback")
	assert.Equal(t, []byte("payload"), entry.Data)
}

func TestGetMissingKey(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.Get("nope")
	assert.False(t, ok)
	_, ok = s.GetStale("nope")
	assert.False(t, ok)
}

func TestSearchNamespaceIsIndependent(t *testing.T) {
	s, now := newTestStore(t)

	s.Set("key", []byte("market"))
	s.SetSearch("key", []byte("search"))

	m, ok := s.Get("key")
	require.True(t, ok)
	q, ok := s.GetSearch("key")
	require.True(t, ok)
	assert.Equal(t, []byte("market"), m.Data)
	assert.Equal(t, []byte("search"), q.Data)

	// Search TTL is shorter: at +6m search is expired, market is not.
	*now = now.Add(6 * time.Minute)
	_, ok = s.GetSearch("key")
	assert.False(t, ok)
	_, ok = s.Get("key")
	assert.True(t, ok)
}

func TestDeleteOnlyRemovesMarketEntry(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("key", []byte("market"))
	s.SetSearch("key", []byte("search"))
	s.Delete("key")

	_, ok := s.GetStale("key")
	assert.False(t, ok)
	_, ok = s.GetSearch("key")
	assert.True(t, ok)
}
