package typeutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("Table", "Color")
	set.Insert("Table")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contain("Table", "Color"))
	assert.False(t, set.Contain("Tone"))

	union := set.Union(NewSet("Tone"))
	assert.Equal(t, []string{"Color", "Table", "Tone"}, Sorted(union))

	set.Remove("Color", "absent")
	assert.Equal(t, []string{"Table"}, Sorted(set))
}

func TestConcurrentSet(t *testing.T) {
	set := NewConcurrentSet[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set.Upsert(i % 4)
		}(i)
	}
	wg.Wait()

	assert.True(t, set.Contain(0, 1, 2, 3))
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, set.Collect())
}
