// Package detect classifies raw ingested rows before mapping: person vs.
// organization, and which source dialect named the columns. Detection runs
// once per batch; a batch is assumed homogeneous.
package detect

import (
	"regexp"
	"strings"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/normalizers"
)

// Local designated-list reference formats, e.g. "LSL/IN/123/2024".
var (
	localIndividualRef = regexp.MustCompile(`^LSL/IN/\d+/\d{4}$`)
	localEntityRef     = regexp.MustCompile(`^LSL/EN/\d+/\d{4}$`)
)

// referenceFields are the column names that may carry a reference number,
// in lookup order.
var referenceFields = []string{"reference_number", "referencenumber", "reference", "ref", "dataid"}

// individualIndicators are column names that only person rows carry.
var individualIndicators = []string{
	"first_name", "firstname", "second_name", "secondname", "third_name", "thirdname",
	"surname", "last_name", "lastname", "dob", "date_of_birth", "nic", "national_id",
	"nationality", "individual_alias", "individual_address",
}

// entityIndicators are column names that only organization rows carry.
var entityIndicators = []string{
	"entity_name", "organization", "organisation", "company", "company_name",
	"entity_alias", "entity_address", "street", "address_line",
}

// RecordKind classifies a sample row as Individual or Entity. Priority:
// a recognized local reference prefix decides deterministically; otherwise
// the side with more indicator columns wins, ties favoring Individual.
func RecordKind(row map[string]string) models.RecordKind {
	if ref := referenceValue(row); ref != "" {
		if localIndividualRef.MatchString(ref) {
			return models.RecordKindIndividual
		}
		if localEntityRef.MatchString(ref) {
			return models.RecordKindEntity
		}
	}

	indiv, entity := indicatorCounts(row)
	if entity > indiv {
		return models.RecordKindEntity
	}
	return models.RecordKindIndividual
}

// Dialect classifies a sample row as Local or External. Rows whose reference
// number matches the local designated-list format, or whose columns use the
// local regulator's names, are Local; everything else is External.
func Dialect(row map[string]string) models.Dialect {
	if ref := referenceValue(row); ref != "" {
		if localIndividualRef.MatchString(ref) || localEntityRef.MatchString(ref) {
			return models.DialectLocal
		}
		// External consolidated feeds use dotted numeric data ids.
		if strings.HasPrefix(ref, "LSL") {
			return models.DialectLocal
		}
	}

	for key := range row {
		switch normalizeKey(key) {
		case "nic", "individual_alias", "entity_alias":
			return models.DialectLocal
		case "dataid", "un_list_type", "listed_on":
			return models.DialectExternal
		}
	}
	return models.DialectLocal
}

func referenceValue(row map[string]string) string {
	for _, field := range referenceFields {
		for key, value := range row {
			if normalizeKey(key) == field && !normalizers.IsBlank(value) {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func indicatorCounts(row map[string]string) (indiv, entity int) {
	keys := make(map[string]struct{}, len(row))
	for key := range row {
		keys[normalizeKey(key)] = struct{}{}
	}
	for _, f := range individualIndicators {
		if _, ok := keys[f]; ok {
			indiv++
		}
	}
	for _, f := range entityIndicators {
		if _, ok := keys[f]; ok {
			entity++
		}
	}
	return indiv, entity
}

// normalizeKey canonicalizes a column header for comparison: lower-cased
// with spaces and dashes folded to underscores.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
