package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/sitecheck/models"
)

func TestKey(t *testing.T) {
	a := Key("https://www.rwth-aachen.de/", "rwth", "browser", []string{"header", "footer"})
	b := Key("https://www.rwth-aachen.de/", "rwth", "browser", []string{"footer", "header"})
	assert.Equal(t, a, b, "region order must not matter")

	assert.NotEqual(t, a, Key("https://www.rwth-aachen.de/", "rwth", "http", []string{"header", "footer"}))
	assert.NotEqual(t, a, Key("https://www.rwth-aachen.de/", "other", "browser", []string{"header", "footer"}))
	assert.NotEqual(t, Key("a", "b", "c", nil), Key("a|b", "", "c", nil))
}

func TestCache_MaxAge(t *testing.T) {
	c := New(10, time.Minute)
	resp := &models.ValidateResponse{Success: true, Passed: true}
	c.Set("k", resp)

	got, ok := c.Get("k", time.Minute)
	assert.True(t, ok)
	assert.Same(t, resp, got)

	_, ok = c.Get("k", 0)
	assert.False(t, ok, "max_age 0 disables the cache")

	_, ok = c.Get("k", time.Nanosecond)
	assert.False(t, ok)

	_, ok = c.Get("missing", time.Minute)
	assert.False(t, ok)
}

func TestCache_Capacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", &models.ValidateResponse{})
	c.Set("b", &models.ValidateResponse{})
	c.Set("c", &models.ValidateResponse{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", time.Minute)
	assert.True(t, ok, "the newest entry is always kept")
}
