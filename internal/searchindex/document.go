package searchindex

import (
	"time"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

// Document is the denormalized shape a record takes inside the index. One
// document exists per (reference_number, list_type) pair; its ID is
// "<list_type>:<reference_number>" so re-indexing replaces rather than
// duplicates.
type Document struct {
	ReferenceNumber string    `json:"reference_number"`
	Kind            string    `json:"kind"`
	ListType        string    `json:"list_type"`
	Source          string    `json:"source"`
	FullName        string    `json:"full_name"`
	FirstName       string    `json:"first_name,omitempty"`
	SecondName      string    `json:"second_name,omitempty"`
	ThirdName       string    `json:"third_name,omitempty"`
	Aliases         []string  `json:"aliases,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ID returns the stable index document ID.
func (d Document) ID() string {
	return d.ListType + ":" + d.ReferenceNumber
}

// Type implements bleve's Classifier so documents pick up the record mapping.
func (d Document) Type() string {
	return docTypeName
}

// FromIndividual flattens an individual into its index document.
func FromIndividual(ind *models.Individual) Document {
	return Document{
		ReferenceNumber: ind.ReferenceNumber,
		Kind:            string(models.RecordKindIndividual),
		ListType:        string(ind.ListType),
		Source:          ind.Source,
		FullName:        ind.DisplayName(),
		FirstName:       ind.FirstName,
		SecondName:      ind.SecondName,
		ThirdName:       ind.ThirdName,
		Aliases:         ind.Aliases,
		CreatedAt:       ind.CreatedAt,
	}
}

// FromEntity flattens an entity into its index document.
func FromEntity(ent *models.Entity) Document {
	return Document{
		ReferenceNumber: ent.ReferenceNumber,
		Kind:            string(models.RecordKindEntity),
		ListType:        string(ent.ListType),
		Source:          ent.Source,
		FullName:        ent.Name,
		Aliases:         ent.Aliases,
		CreatedAt:       ent.CreatedAt,
	}
}
