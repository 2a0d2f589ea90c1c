package models

// RecordKind distinguishes person records from organization records.
type RecordKind string

const (
	RecordKindIndividual RecordKind = "individual"
	RecordKindEntity     RecordKind = "entity"
)

// ParseRecordKind maps a user-supplied search type to a RecordKind filter.
// Unknown or empty values mean "no filter".
func ParseRecordKind(s string) *RecordKind {
	switch RecordKind(s) {
	case RecordKindIndividual:
		k := RecordKindIndividual
		return &k
	case RecordKindEntity:
		k := RecordKindEntity
		return &k
	}
	return nil
}

// Dialect is a source-specific field-naming convention. Local files use the
// domestic regulator's column names; External files follow the consolidated
// feed's naming.
type Dialect string

const (
	DialectLocal    Dialect = "local"
	DialectExternal Dialect = "external"
)

// ListType classifies which blocklist a record belongs to. The reference
// number is only unique within a list type.
type ListType string

const (
	ListTypeExternalSanctions ListType = "external_sanctions"
	ListTypeLocalSanctions    ListType = "local_sanctions"
	ListTypeOther             ListType = "other"
)

// ListTypeForDialect returns the list classification records of a dialect
// default into.
func ListTypeForDialect(d Dialect) ListType {
	if d == DialectLocal {
		return ListTypeLocalSanctions
	}
	return ListTypeExternalSanctions
}
