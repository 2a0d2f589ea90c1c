package models

import (
	"time"

	"github.com/lib/pq"
)

// Entity is the canonical shape for a sanctioned organization.
type Entity struct {
	ID              string         `json:"id" db:"id"`
	ReferenceNumber string         `json:"reference_number" db:"reference_number"`
	Name            string         `json:"name" db:"name"`
	Aliases         pq.StringArray `json:"aliases" db:"aliases"`

	AddressLines     pq.StringArray `json:"address_lines" db:"address_lines"`
	AddressStreets   pq.StringArray `json:"address_streets" db:"address_streets"`
	AddressCities    pq.StringArray `json:"address_cities" db:"address_cities"`
	AddressCountries pq.StringArray `json:"address_countries" db:"address_countries"`

	Source      string    `json:"source" db:"source"`
	SourceFile  string    `json:"source_file,omitempty" db:"source_file"`
	ImportJobID *string   `json:"import_job_id,omitempty" db:"import_job_id"`
	ListType    ListType  `json:"list_type" db:"list_type"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EntityListResponse is the response for listing entities
type EntityListResponse struct {
	Items      []Entity `json:"items"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}
