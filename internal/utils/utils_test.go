package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "go-1-25-released", Slugify("Go 1.25 released!"))
	assert.Equal(t, "", Slugify("!!!"))
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("word ", 100))), maxSlugLen)
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache[string](2, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", "1")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache[int](2, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("# Title\n\n<script>alert(1)</script>\n\n![pic](https://example.com/a.png)")

	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.NotContains(t, out, "<body")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", Excerpt("**Hello**\n\nworld", 50))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
}

func TestStringToInt(t *testing.T) {
	assert.Equal(t, 5, StringToInt("5", 1))
	assert.Equal(t, 1, StringToInt("", 1))
	assert.Equal(t, 1, StringToInt("x", 1))

	id, ok := StringToUint("12")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)
	_, ok = StringToUint("0")
	assert.False(t, ok)
}
