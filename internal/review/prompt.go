// Package review turns a review request into a prompt and sends it to the
// generation backend.
package review

import (
	"fmt"
	"strings"

	"review-framework-api/internal/framework"
)

// BuildPrompt renders the generation prompt. Free text is embedded as given and
// components are rendered as two-space indented JSON, "{}" when there are none.
func BuildPrompt(productName, productCategory, userExperience string, components map[string]interface{}) string {
	var parts []string

	parts = append(parts, "You are a professional product reviewer using the Amazon Review Framework.")
	parts = append(parts, fmt.Sprintf("\nProduct: %s", productName))
	parts = append(parts, fmt.Sprintf("Category: %s", productCategory))

	parts = append(parts, "\nUser's experience with the product:")
	parts = append(parts, userExperience)

	parts = append(parts, "\nUsing the Amazon Review Framework components below, generate a comprehensive,")
	parts = append(parts, "well-structured review for this product. Follow the framework guidelines for structure,")
	parts = append(parts, "content balance, and authenticity.")

	parts = append(parts, "\nFramework components to use:")
	parts = append(parts, renderComponents(components))

	parts = append(parts, "\nGenerate a complete review following these framework guidelines.")

	return strings.Join(parts, "\n")
}

func renderComponents(components map[string]interface{}) string {
	if len(components) == 0 {
		return "{}"
	}
	data, err := framework.Indent(components)
	if err != nil {
		return "{}"
	}
	return data
}
