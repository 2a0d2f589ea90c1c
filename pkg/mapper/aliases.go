package mapper

// Source column aliases per canonical field, in lookup priority order. The
// first non-blank column wins. Covering both dialects in one ordered table
// keeps fallbacks declarative: local regulator names first, consolidated
// feed names after.
var individualAliases = map[string][]string{
	"reference_number": {"reference_number", "referencenumber", "reference", "ref", "dataid"},
	"first_name":       {"first_name", "firstname", "given_name"},
	"second_name":      {"second_name", "secondname", "surname", "last_name", "lastname"},
	"third_name":       {"third_name", "thirdname", "other_name"},
	"full_name":        {"full_name", "name", "complete_name"},
	"aliases":          {"individual_alias", "alias", "aliases", "alias_names", "aka", "good_quality_alias"},
	"date_of_birth":    {"dob", "date_of_birth", "birth_date", "individual_date_of_birth"},
	"national_id":      {"nic", "national_id", "national_identifier", "id_number"},
	"nationality":      {"nationality", "nationalities", "citizenship"},
	"birth_city":       {"birth_city", "place_of_birth", "city_of_birth", "individual_place_of_birth"},
	"birth_country":    {"birth_country", "country_of_birth"},
	"address_city":     {"address_city", "city", "individual_address_city"},
	"address_country":  {"address_country", "country", "individual_address_country"},
	"doc_type":         {"doc_type", "document_type", "individual_document_type"},
	"doc_number":       {"doc_number", "document_number", "passport_number", "individual_document_number"},
	"doc_country":      {"doc_issuing_country", "document_country", "issuing_country"},
}

var entityAliases = map[string][]string{
	"reference_number": {"reference_number", "referencenumber", "reference", "ref", "dataid"},
	"name":             {"entity_name", "name", "organization", "organisation", "company", "company_name", "full_name"},
	"aliases":          {"entity_alias", "alias", "aliases", "alias_names", "aka"},
	"address_line":     {"address_line", "address", "entity_address", "full_address"},
	"street":           {"street", "address_street"},
	"address_city":     {"address_city", "city", "entity_address_city"},
	"address_country":  {"address_country", "country", "entity_address_country"},
}
