package review

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_EmptyComponents(t *testing.T) {
	prompt := BuildPrompt("Widget", "Tools", "Works great", map[string]interface{}{})

	assert.Contains(t, prompt, "Product: Widget")
	assert.Contains(t, prompt, "Category: Tools")
	assert.Contains(t, prompt, "Works great")
	assert.Contains(t, prompt, "Framework components to use:\n{}\n")

	assert.Equal(t, prompt, BuildPrompt("Widget", "Tools", "Works great", nil))
}

func TestBuildPrompt_Exact(t *testing.T) {
	components := map[string]interface{}{
		"review-strategy.json": map[string]interface{}{"tone": "balanced"},
		"content-structure.json": map[string]interface{}{
			"sections": []interface{}{"summary", "pros"},
		},
	}

	want := strings.Join([]string{
		"You are a professional product reviewer using the Amazon Review Framework.",
		"",
		"Product: Widget",
		"Category: Tools",
		"",
		"User's experience with the product:",
		"Works great",
		"",
		"Using the Amazon Review Framework components below, generate a comprehensive,",
		"well-structured review for this product. Follow the framework guidelines for structure,",
		"content balance, and authenticity.",
		"",
		"Framework components to use:",
		`{`,
		`  "content-structure.json": {`,
		`    "sections": [`,
		`      "summary",`,
		`      "pros"`,
		`    ]`,
		`  },`,
		`  "review-strategy.json": {`,
		`    "tone": "balanced"`,
		`  }`,
		`}`,
		"",
		"Generate a complete review following these framework guidelines.",
	}, "\n")

	got := BuildPrompt("Widget", "Tools", "Works great", components)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildPrompt mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPrompt_SectionOrderAndVerbatimText(t *testing.T) {
	experience := "Line one\n<b>not escaped</b> & {\"json\": true}"
	prompt := BuildPrompt("Name with {braces}", "Cat %s", experience, map[string]interface{}{"a.json": 1})

	assert.Contains(t, prompt, "Product: Name with {braces}")
	assert.Contains(t, prompt, "Category: Cat %s")
	assert.Contains(t, prompt, experience)

	order := []string{"Product:", "Category:", "User's experience", "Framework components to use:", "Generate a complete review"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(prompt, marker)
		assert.Greater(t, idx, last, "section %q out of order", marker)
		last = idx
	}
}

func TestBuildPrompt_ComponentsNotHTMLEscaped(t *testing.T) {
	components := map[string]interface{}{
		"content-structure.json": map[string]interface{}{"note": "Pros & Cons <b>"},
	}

	prompt := BuildPrompt("Widget", "Tools", "Works great", components)

	assert.Contains(t, prompt, `"note": "Pros & Cons <b>"`)
	assert.NotContains(t, prompt, `\u0026`)
	assert.NotContains(t, prompt, `\u003c`)
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	components := map[string]interface{}{"b.json": 2, "a.json": 1, "c.json": 3}

	first := BuildPrompt("p", "c", "e", components)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildPrompt("p", "c", "e", components))
	}
}
