package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnPointsAreExclusive(t *testing.T) {
	p := NewSpawnPointPool()
	total := p.Available()

	seen := make(map[SpawnPoint]bool)
	for i := 0; i < total; i++ {
		pt, ok := p.Acquire()
		require.True(t, ok, "pool exhausted after %d of %d", i, total)
		assert.False(t, seen[pt], "point %v handed out twice", pt)
		seen[pt] = true
	}

	// exhausted: callers must tolerate "no position"
	_, ok := p.Acquire()
	assert.False(t, ok)
}

func TestSpawnPoolRelease(t *testing.T) {
	p := NewSpawnPointPool()
	pt, ok := p.Acquire()
	require.True(t, ok)
	before := p.Available()

	p.Release(pt)
	assert.Equal(t, before+1, p.Available())
}

func TestSpawnPoolReset(t *testing.T) {
	p := NewSpawnPointPool()
	total := p.Available()
	for i := 0; i < 5; i++ {
		_, ok := p.Acquire()
		require.True(t, ok)
	}
	require.Equal(t, total-5, p.Available())

	p.Reset()
	assert.Equal(t, total, p.Available())
}
