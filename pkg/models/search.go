package models

import "time"

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	SearchTerm string `json:"search_term" validate:"required,min=2"`
	SearchType string `json:"search_type,omitempty" validate:"omitempty,oneof=individual entity"`
}

// SearchResult is one ranked hit returned to the caller. SimilarityPercentage
// is the symmetric token-level score, 0.00 to 100.00.
type SearchResult struct {
	ReferenceNumber      string     `json:"reference_number"`
	Kind                 RecordKind `json:"kind"`
	FullName             string     `json:"full_name"`
	FirstName            string     `json:"first_name,omitempty"`
	SecondName           string     `json:"second_name,omitempty"`
	ThirdName            string     `json:"third_name,omitempty"`
	Aliases              []string   `json:"aliases,omitempty"`
	Source               string     `json:"source,omitempty"`
	ListType             ListType   `json:"list_type,omitempty"`
	SimilarityPercentage float64    `json:"similarity_percentage"`
}

// SearchStatus is the body of GET /search/status.
type SearchStatus struct {
	TotalRecords uint64     `json:"total_records"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}
