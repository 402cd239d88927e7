package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := Snapshot{
		Watchlist: []string{"bitcoin", "ethereum"},
		Holdings:  map[string]string{"bitcoin": "0.5", "ethereum": "iou two"},
	}
	require.NoError(t, s.Save("0xabc", in))

	out, err := s.Load("0xabc")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadMissingNamespaceIsEmpty(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.Load("0xnever")
	require.NoError(t, err)
	assert.Empty(t, snap.Watchlist)
	assert.Empty(t, snap.Holdings)
	assert.NotNil(t, snap.Holdings)
}

func TestNamespacesAreIsolated(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("0xaaa", Snapshot{Watchlist: []string{"bitcoin"}, Holdings: map[string]string{"bitcoin": "1"}}))
	require.NoError(t, s.Save("0xbbb", Snapshot{Watchlist: []string{"solana"}, Holdings: map[string]string{"solana": "9"}}))

	a, err := s.Load("0xaaa")
	require.NoError(t, err)
	b, err := s.Load("0xbbb")
	require.NoError(t, err)

	assert.Equal(t, []string{"bitcoin"}, a.Watchlist)
	assert.Equal(t, []string{"solana"}, b.Watchlist)
}

func TestClearRemovesOnlyOneNamespace(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("0xaaa", Snapshot{Watchlist: []string{"bitcoin"}, Holdings: map[string]string{}}))
	require.NoError(t, s.Save("0xbbb", Snapshot{Watchlist: []string{"solana"}, Holdings: map[string]string{}}))

	require.NoError(t, s.Clear("0xaaa"))
	require.NoError(t, s.Clear("0xaaa"), "clearing twice must not error")

	a, err := s.Load("0xaaa")
	require.NoError(t, err)
	assert.Empty(t, a.Watchlist)

	b, err := s.Load("0xbbb")
	require.NoError(t, err)
	assert.Equal(t, []string{"solana"}, b.Watchlist)
}

func TestNamespaceNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "default"},
		{"  ", "default"},
		{"0xAbCd", "0xabcd"},
		{"0xabcd", "0xabcd"},
	}
	for _, tt := range tests {
		if got := Namespace(tt.in); got != tt.want {
			t.Errorf("Namespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
