package models

import "time"

// ReviewRequest is the body of POST /generate-review.
type ReviewRequest struct {
	ProductName       string   `json:"product_name"`
	ProductCategory   string   `json:"product_category"`
	UserExperience    string   `json:"user_experience"`
	IncludeComponents []string `json:"include_components,omitempty"`
}

// ReviewResponse is returned for every request that reaches the generator.
type ReviewResponse struct {
	Review         string   `json:"review"`
	ComponentsUsed []string `json:"components_used"`
}

// ReviewRecord is a generated review as kept in the history list.
type ReviewRecord struct {
	RequestID       string    `json:"request_id"`
	ProductName     string    `json:"product_name"`
	ProductCategory string    `json:"product_category"`
	ComponentsUsed  []string  `json:"components_used"`
	Review          string    `json:"review"`
	Generated       bool      `json:"generated"`
	CreatedAt       time.Time `json:"created_at"`
}

// FileListing is the body of GET /files.
type FileListing struct {
	Files           []string `json:"files"`
	Count           int      `json:"count"`
	Directory       string   `json:"directory"`
	DirectoryExists bool     `json:"directory_exists"`
	RootDirectories []string `json:"root_directories"`
}
