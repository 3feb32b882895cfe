package extension

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type provider interface{ Name() string }

type namedProvider string

func (n namedProvider) Name() string { return string(n) }

func TestPublishFirstClaimWins(t *testing.T) {
	r := NewRegistry()
	key := NewKey[provider]("test/provider")

	require.True(t, Publish[provider](r, key, namedProvider("first")))
	require.False(t, Publish[provider](r, key, namedProvider("second")))

	got, ok := Lookup(r, key)
	require.True(t, ok)
	assert.Equal(t, "first", got.Name())
}

func TestReplace(t *testing.T) {
	r := NewRegistry()
	key := NewKey[int]("test/count")

	Replace(r, key, 1)
	Replace(r, key, 2)
	assert.Equal(t, 2, MustLookup(r, key))
}

func TestLookupMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := Lookup(r, NewKey[string]("missing"))
	assert.False(t, ok)
	assert.Panics(t, func() { MustLookup(r, NewKey[string]("missing")) })
}

func TestLookupTypeMismatchPanics(t *testing.T) {
	r := NewRegistry()
	Publish(r, NewKey[int]("shared"), 1)
	assert.Panics(t, func() { _, _ = Lookup(r, NewKey[string]("shared")) })
}

func TestConcurrentPublishSingleWinner(t *testing.T) {
	r := NewRegistry()
	key := NewKey[int]("race")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if Publish(r, key, v) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, []string{"race"}, r.Names())
}
