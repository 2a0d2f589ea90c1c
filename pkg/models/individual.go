package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Individual is the canonical shape for a sanctioned person. Every ingestion
// path (bulk CSV upload, remote feed sync) converges on this record.
// Field order matches schema: reference_number, name parts, ...
type Individual struct {
	ID              string         `json:"id" db:"id"`
	ReferenceNumber string         `json:"reference_number" db:"reference_number"`
	FirstName       string         `json:"first_name" db:"first_name"`
	SecondName      string         `json:"second_name,omitempty" db:"second_name"`
	ThirdName       string         `json:"third_name,omitempty" db:"third_name"`
	FullName        string         `json:"full_name" db:"full_name"`
	Aliases         pq.StringArray `json:"aliases" db:"aliases"`
	DateOfBirth     string         `json:"date_of_birth,omitempty" db:"date_of_birth"`
	NationalID      string         `json:"national_id,omitempty" db:"national_id"`

	// Source feeds report multiple values for these, so they are sets.
	Nationalities    pq.StringArray `json:"nationalities" db:"nationalities"`
	BirthCities      pq.StringArray `json:"birth_cities" db:"birth_cities"`
	BirthCountries   pq.StringArray `json:"birth_countries" db:"birth_countries"`
	AddressCities    pq.StringArray `json:"address_cities" db:"address_cities"`
	AddressCountries pq.StringArray `json:"address_countries" db:"address_countries"`

	// Parallel document sets (type[i] goes with number[i] and country[i]).
	DocTypes            pq.StringArray `json:"doc_types" db:"doc_types"`
	DocNumbers          pq.StringArray `json:"doc_numbers" db:"doc_numbers"`
	DocIssuingCountries pq.StringArray `json:"doc_issuing_countries" db:"doc_issuing_countries"`

	Source      string    `json:"source" db:"source"`
	SourceFile  string    `json:"source_file,omitempty" db:"source_file"`
	ImportJobID *string   `json:"import_job_id,omitempty" db:"import_job_id"`
	ListType    ListType  `json:"list_type" db:"list_type"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the free-text full name, deriving it from the name
// parts when the source never supplied one.
func (i *Individual) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{i.FirstName, i.SecondName, i.ThirdName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// BirthYear extracts the four-digit year from the date-of-birth string, or
// "" when none is present. Used by the feed dedup key.
func (i *Individual) BirthYear() string {
	for start := 0; start+4 <= len(i.DateOfBirth); start++ {
		if isYear(i.DateOfBirth[start : start+4]) {
			return i.DateOfBirth[start : start+4]
		}
	}
	return ""
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s[0] == '1' || s[0] == '2'
}

// IndividualListResponse is the response for listing individuals
type IndividualListResponse struct {
	Items      []Individual `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}
