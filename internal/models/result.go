package models

import "github.com/hyperjump/wordspace/internal/space"

// QueryResponse is the response for any ranking request.
type QueryResponse struct {
	Results   []space.ScoredWord `json:"results"`
	Total     int                `json:"total"`
	QueryTime int64              `json:"query_time_ms"`
	Query     string             `json:"query"`
}

// DistanceResponse is the cosine distance between two resolved words.
type DistanceResponse struct {
	First    string  `json:"first"`
	Second   string  `json:"second"`
	Distance float32 `json:"distance"`
}

// SuggestResponse lists vocabulary words for a partial or misspelled query.
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Suggestions holds close vocabulary words when a word was not found.
	Suggestions []string `json:"suggestions,omitempty"`
}
