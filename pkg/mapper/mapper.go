// Package mapper converts raw ingested rows into canonical blocklist
// records. Mapping functions are pure, deterministic, and total: a missing
// field maps to an empty or omitted value, never to a placeholder sentinel,
// and mapping never fails.
package mapper

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/normalizers"
)

// localRefPattern is the designated-list reference format, e.g. "LSL/IN/42/2024".
var localRefPattern = regexp.MustCompile(`^LSL/(IN|EN)/\d+/\d{4}$`)

// Provenance carries the source attribution stamped onto every mapped record.
type Provenance struct {
	Source      string
	SourceFile  string
	ImportJobID *string
	ListType    models.ListType
}

// Sequence issues the counter used to synthesize local reference numbers for
// rows that arrive without a valid one.
type Sequence interface {
	Next() int64
}

// AtomicSequence is an in-process Sequence.
type AtomicSequence struct {
	n atomic.Int64
}

func (s *AtomicSequence) Next() int64 {
	return s.n.Add(1)
}

// Mapper maps raw rows into canonical records.
type Mapper struct {
	seq Sequence
	now func() time.Time
}

// New creates a Mapper with its own reference sequence.
func New() *Mapper {
	return &Mapper{seq: &AtomicSequence{}, now: time.Now}
}

// NewWithSequence creates a Mapper sharing an externally owned sequence.
func NewWithSequence(seq Sequence) *Mapper {
	return &Mapper{seq: seq, now: time.Now}
}

// MapIndividual maps a raw row into a canonical Individual.
func (m *Mapper) MapIndividual(row map[string]string, dialect models.Dialect, prov Provenance) models.Individual {
	get := lookupFunc(row, individualAliases)

	ind := models.Individual{
		FirstName:   get("first_name"),
		SecondName:  get("second_name"),
		ThirdName:   get("third_name"),
		FullName:    normalizers.CollapseWhitespace(get("full_name")),
		DateOfBirth: get("date_of_birth"),
		NationalID:  normalizers.NormalizeIdentifier(get("national_id")),

		Aliases:          normalizers.SplitList(get("aliases")),
		Nationalities:    normalizers.SplitList(get("nationality")),
		BirthCities:      normalizers.SplitList(get("birth_city")),
		BirthCountries:   normalizers.SplitList(get("birth_country")),
		AddressCities:    normalizers.SplitList(get("address_city")),
		AddressCountries: normalizers.SplitList(get("address_country")),

		DocTypes:            normalizers.SplitList(get("doc_type")),
		DocNumbers:          normalizers.CleanList(upperAll(normalizers.SplitList(get("doc_number")))),
		DocIssuingCountries: normalizers.SplitList(get("doc_country")),

		Source:      prov.Source,
		SourceFile:  prov.SourceFile,
		ImportJobID: prov.ImportJobID,
		ListType:    prov.ListType,
		IsActive:    true,
	}

	// A combined name with no discrete parts is split on whitespace:
	// first / second / remainder-as-third.
	if ind.FirstName == "" && ind.SecondName == "" && ind.FullName != "" {
		ind.FirstName, ind.SecondName, ind.ThirdName = splitName(ind.FullName)
	}
	if ind.FullName == "" {
		ind.FullName = ind.DisplayName()
	}

	ind.ReferenceNumber = m.normalizeReference(get("reference_number"), dialect, models.RecordKindIndividual)
	return ind
}

// MapEntity maps a raw row into a canonical Entity.
func (m *Mapper) MapEntity(row map[string]string, dialect models.Dialect, prov Provenance) models.Entity {
	get := lookupFunc(row, entityAliases)

	ent := models.Entity{
		Name:    normalizers.CollapseWhitespace(get("name")),
		Aliases: normalizers.SplitList(get("aliases")),

		AddressLines:     normalizers.SplitList(get("address_line")),
		AddressStreets:   normalizers.SplitList(get("street")),
		AddressCities:    normalizers.SplitList(get("address_city")),
		AddressCountries: normalizers.SplitList(get("address_country")),

		Source:      prov.Source,
		SourceFile:  prov.SourceFile,
		ImportJobID: prov.ImportJobID,
		ListType:    prov.ListType,
		IsActive:    true,
	}

	ent.ReferenceNumber = m.normalizeReference(get("reference_number"), dialect, models.RecordKindEntity)
	return ent
}

// normalizeReference passes through valid source references and synthesizes
// a deterministic replacement otherwise. Local dialect synthesizes a
// designated-list reference from the sequence counter and the current year;
// External passes through whatever identifier the feed supplied, falling
// back to a monotonically distinct suffix when even that is absent.
func (m *Mapper) normalizeReference(ref string, dialect models.Dialect, kind models.RecordKind) string {
	ref = normalizers.Clean(ref)

	if dialect == models.DialectLocal {
		if localRefPattern.MatchString(ref) {
			return ref
		}
		segment := "IN"
		if kind == models.RecordKindEntity {
			segment = "EN"
		}
		return fmt.Sprintf("LSL/%s/%d/%d", segment, m.seq.Next(), m.now().Year())
	}

	if ref != "" {
		return ref
	}
	return fmt.Sprintf("EXT-%d", m.seq.Next())
}

// HasIdentity reports whether a row carries at least one identifying value:
// a source reference number or any name field. A row with none cannot become
// a meaningful record and should be skipped by callers.
func HasIdentity(row map[string]string, kind models.RecordKind) bool {
	aliases := individualAliases
	fields := []string{"reference_number", "first_name", "second_name", "third_name", "full_name"}
	if kind == models.RecordKindEntity {
		aliases = entityAliases
		fields = []string{"reference_number", "name"}
	}

	get := lookupFunc(row, aliases)
	for _, field := range fields {
		if get(field) != "" {
			return true
		}
	}
	return false
}

// lookupFunc resolves a canonical field against the row using the ordered
// alias table. Row headers are compared case-insensitively with spaces and
// dashes folded to underscores.
func lookupFunc(row map[string]string, aliases map[string][]string) func(string) string {
	normalized := make(map[string]string, len(row))
	for key, value := range row {
		normalized[normalizeKey(key)] = value
	}
	return func(field string) string {
		for _, alias := range aliases[field] {
			if v, ok := normalized[alias]; ok && !normalizers.IsBlank(v) {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

func splitName(full string) (first, second, third string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], strings.Join(parts[2:], " ")
	}
}

func upperAll(values []string) []string {
	for i := range values {
		values[i] = strings.ToUpper(values[i])
	}
	return values
}
