package executor

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionDedupMarkAndContains(t *testing.T) {
	d := NewSessionDedup()

	assert.False(t, d.Contains("mkt-1"))
	d.Mark("mkt-1")
	assert.True(t, d.Contains("mkt-1"))
	assert.False(t, d.Contains("mkt-2"))
	assert.Equal(t, 1, d.Len())
}

func TestSessionDedupIsMonotonic(t *testing.T) {
	d := NewSessionDedup()

	d.Mark("mkt-1")
	d.Mark("mkt-1")
	assert.Equal(t, 1, d.Len())

	// Once marked, a market stays marked for the life of the process.
	for i := 0; i < 100; i++ {
		assert.True(t, d.Contains("mkt-1"))
	}
}

func TestSessionDedupConcurrentMarks(t *testing.T) {
	d := NewSessionDedup()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Mark(fmt.Sprintf("mkt-%d", n%10))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, d.Len())
}
