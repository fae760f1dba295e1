package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"review-framework-api/internal/common/config"
	"review-framework-api/internal/common/logger"
)

type staticLoader map[string]interface{}

func (l staticLoader) LoadAll() map[string]interface{} {
	out := make(map[string]interface{}, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func newTestSelector(t *testing.T, files staticLoader) *Selector {
	return NewSelector(files, createTestConfig("unused"), logger.NewTestLogger(t))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in       string
		ext      string
		expected string
	}{
		{"review-strategy", ".json", "review-strategy.json"},
		{"review-strategy.json", ".json", "review-strategy.json"},
		{"notes.txt", ".json", "notes.txt.json"},
		{"x", "", "x.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.in, tt.ext))
		})
	}
}

func TestSelector_Resolve_Defaults(t *testing.T) {
	t.Run("all defaults present", func(t *testing.T) {
		sel := newTestSelector(t, staticLoader{
			"framework-config.json":  "a",
			"review-strategy.json":   "b",
			"content-structure.json": "c",
			"extra.json":             "d",
		})

		got := sel.Resolve(nil)

		assert.Equal(t, map[string]interface{}{
			"framework-config.json":  "a",
			"review-strategy.json":   "b",
			"content-structure.json": "c",
		}, got)
	})

	t.Run("absent defaults are skipped", func(t *testing.T) {
		sel := newTestSelector(t, staticLoader{"review-strategy.json": "b", "extra.json": "d"})

		assert.Equal(t, map[string]interface{}{"review-strategy.json": "b"}, sel.Resolve([]string{}))
	})

	t.Run("empty store", func(t *testing.T) {
		sel := newTestSelector(t, staticLoader{})

		got := sel.Resolve(nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSelector_Resolve_Requested(t *testing.T) {
	sel := newTestSelector(t, staticLoader{
		"framework-config.json": "a",
		"extra.json":            "d",
	})

	assert.Equal(t, sel.Resolve([]string{"extra"}), sel.Resolve([]string{"extra.json"}))
	assert.Equal(t, map[string]interface{}{"extra.json": "d"}, sel.Resolve([]string{"extra"}))

	assert.Empty(t, sel.Resolve([]string{"nonexistent"}))

	// requested list replaces the defaults entirely
	assert.Equal(t, map[string]interface{}{"extra.json": "d"}, sel.Resolve([]string{"extra", "nope"}))
}

func TestSelector_ComponentsUsed(t *testing.T) {
	sel := newTestSelector(t, staticLoader{})

	assert.Equal(t, config.DefaultComponents, sel.ComponentsUsed(nil))
	assert.Equal(t, []string{"tone.json", "missing.json", "extra.json"}, sel.ComponentsUsed([]string{"tone", "missing", "extra.json"}))

	// callers cannot mutate the selector's defaults
	used := sel.ComponentsUsed(nil)
	used[0] = "changed.json"
	assert.Equal(t, "framework-config.json", sel.Defaults()[0])
}

func TestSelector_CustomDefaults(t *testing.T) {
	sel := NewSelector(staticLoader{"only.json": 1}, config.FrameworkConfig{DefaultComponents: []string{"only.json"}}, nil)

	assert.Equal(t, map[string]interface{}{"only.json": 1}, sel.Resolve(nil))
	assert.Equal(t, []string{"only.json"}, sel.ComponentsUsed(nil))
}
