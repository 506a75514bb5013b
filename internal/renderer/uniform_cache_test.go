package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countingCache(calls *int) *UniformCache {
	cache := NewUniformCache(7)
	cache.lookup = func(program uint32, name string) int32 {
		*calls++
		if name == "missing" {
			return -1
		}
		return int32(len(name))
	}
	return cache
}

func TestUniformCacheLooksUpOnce(t *testing.T) {
	var calls int
	cache := countingCache(&calls)

	assert.Equal(t, int32(8), cache.GetLocation("exposure"))
	assert.Equal(t, int32(8), cache.GetLocation("exposure"))
	assert.Equal(t, 1, calls)

	assert.Equal(t, int32(-1), cache.GetLocation("missing"))
	assert.Equal(t, int32(-1), cache.GetLocation("missing"))
	assert.Equal(t, 2, calls, "absent uniforms are cached too")
}

func TestUniformCacheClear(t *testing.T) {
	var calls int
	cache := countingCache(&calls)
	cache.GetLocation("time")

	cache.Clear()
	assert.Empty(t, cache.locations)

	cache.GetLocation("time")
	assert.Equal(t, 2, calls)
}
