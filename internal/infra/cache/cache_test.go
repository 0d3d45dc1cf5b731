package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boddenberg/comissoes-bfa/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")

	assert.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	assert.False(t, ok)
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	assert.False(t, ok, "expected cache entry to be expired")
}

func TestCache_SetWithTTL(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	c.SetWithTTL("short", 1, 20*time.Millisecond)
	c.Set("long", 2)
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestCache_DeleteAndPrefix(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("sales:u1", "a")
	c.Set("sales:u2", "b")
	c.Set("clients:u1", "c")

	c.Delete("clients:u1")
	_, ok := c.Get("clients:u1")
	assert.False(t, ok)

	c.DeletePrefix("sales:")
	assert.Equal(t, 0, c.Len())
}
