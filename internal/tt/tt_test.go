package tt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	table := New()
	assert.Equal(t, 0, table.Len())
	_, ok := table.Get("anything")
	assert.False(t, ok)
}

func TestSetGet(t *testing.T) {
	table := New()
	r := table.Set("epd1", Entry{Depth: 3, Moves: map[string]int{"e2e4": 30}})
	assert.Equal(t, 3, r.Depth)

	got, ok := table.Get("epd1")
	assert.True(t, ok)
	assert.Equal(t, 3, got.Depth)
	assert.Equal(t, 30, got.Moves["e2e4"])
	assert.Equal(t, 1, table.Len())
}

func TestSetKeepsDeeper(t *testing.T) {
	table := New()
	table.Set("epd1", Entry{Depth: 5, Moves: map[string]int{"e2e4": 30}})
	kept := table.Set("epd1", Entry{Depth: 2, Moves: map[string]int{"e2e4": 99}})
	assert.Equal(t, 5, kept.Depth)

	got, _ := table.Get("epd1")
	assert.Equal(t, 5, got.Depth)
	assert.Equal(t, 30, got.Moves["e2e4"])
}

func TestSetOverwritesEqualDepth(t *testing.T) {
	table := New()
	table.Set("epd1", Entry{Depth: 4, Moves: map[string]int{"e2e4": 30}})
	table.Set("epd1", Entry{Depth: 4, Moves: map[string]int{"e2e4": 40}})

	got, _ := table.Get("epd1")
	assert.Equal(t, 40, got.Moves["e2e4"])
}

func TestSetReplacesDeeper(t *testing.T) {
	table := New()
	table.Set("epd1", Entry{Depth: 2, Moves: map[string]int{"e2e4": 30}})
	table.Set("epd1", Entry{Depth: 7, Moves: map[string]int{"e2e4": 45}})

	got, _ := table.Get("epd1")
	assert.Equal(t, 7, got.Depth)
	assert.Equal(t, 45, got.Moves["e2e4"])
}

// TestConcurrentSetMonotonic exercises invariant 1 from the spec: after any
// interleaving of concurrent Set calls on the same key, the stored depth is
// at least the maximum depth ever offered.
func TestConcurrentSetMonotonic(t *testing.T) {
	table := New()
	var wg sync.WaitGroup
	const writers = 50
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(depth int) {
			defer wg.Done()
			table.Set("epd1", Entry{Depth: depth, Moves: map[string]int{"e2e4": depth}})
		}(i)
	}
	wg.Wait()

	got, ok := table.Get("epd1")
	assert.True(t, ok)
	assert.Equal(t, writers-1, got.Depth)
}
