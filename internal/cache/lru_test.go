package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyRead(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	_, ok := c.Get("a") // b is now the oldest
	assert.True(t, ok)

	c.Add("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUReplace(t *testing.T) {
	c := New[string, int](1)
	c.Add("a", 1)
	c.Add("a", 2)

	v, _ := c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRURejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}
