package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceConcurrentCallersNeverCollide(t *testing.T) {
	const workers, perWorker = 8, 1000

	seq := NewSequence()
	out := make(chan uint32, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				out <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint32]bool, workers*perWorker)
	for n := range out {
		assert.False(t, seen[n], "duplicate sequence %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
