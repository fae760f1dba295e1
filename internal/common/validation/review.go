package validation

// ReviewRequestSchema describes the POST /generate-review body. Unknown
// properties are ignored and empty strings are accepted.
func ReviewRequestSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"product_name": {
				Type:        "string",
				Description: "Name of the product under review",
			},
			"product_category": {
				Type:        "string",
				Description: "Product category, e.g. Electronics or Kitchen",
			},
			"user_experience": {
				Type:        "string",
				Description: "Free-text account of the user's experience with the product",
			},
			"include_components": {
				Type:        "array",
				Description: "Framework components to include; the .json suffix is optional",
				Items:       &Property{Type: "string"},
			},
		},
		Required: []string{"product_name", "product_category", "user_experience"},
	}
}
