package feed

import "strings"

// Document is the top level of the consolidated feed. encoding/xml fills the
// slice fields whether the source emits one node or many, which is the whole
// reason these are slices even for usually-single values.
type Document struct {
	Individuals []Individual `xml:"INDIVIDUALS>INDIVIDUAL"`
	Entities    []Entity     `xml:"ENTITIES>ENTITY"`
}

// Individual is one person node from the feed.
type Individual struct {
	DataID          string           `xml:"DATAID"`
	ReferenceNumber string           `xml:"REFERENCE_NUMBER"`
	FirstName       string           `xml:"FIRST_NAME"`
	SecondName      string           `xml:"SECOND_NAME"`
	ThirdName       string           `xml:"THIRD_NAME"`
	Aliases         []Alias          `xml:"INDIVIDUAL_ALIAS"`
	DatesOfBirth    []DateOfBirth    `xml:"INDIVIDUAL_DATE_OF_BIRTH"`
	Nationalities   []string         `xml:"NATIONALITY>VALUE"`
	PlacesOfBirth   []Place          `xml:"INDIVIDUAL_PLACE_OF_BIRTH"`
	Addresses       []Place          `xml:"INDIVIDUAL_ADDRESS"`
	Documents       []TravelDocument `xml:"INDIVIDUAL_DOCUMENT"`
}

// Entity is one organization node from the feed.
type Entity struct {
	DataID          string  `xml:"DATAID"`
	ReferenceNumber string  `xml:"REFERENCE_NUMBER"`
	Name            string  `xml:"FIRST_NAME"`
	Aliases         []Alias `xml:"ENTITY_ALIAS"`
	Addresses       []Place `xml:"ENTITY_ADDRESS"`
}

// Alias is an alternate name node.
type Alias struct {
	Quality string `xml:"QUALITY"`
	Name    string `xml:"ALIAS_NAME"`
}

// DateOfBirth carries either an exact date or just a year.
type DateOfBirth struct {
	TypeOfDate string `xml:"TYPE_OF_DATE"`
	Date       string `xml:"DATE"`
	Year       string `xml:"YEAR"`
}

// Value returns whichever representation the node carries.
func (d DateOfBirth) Value() string {
	if d.Date != "" {
		return d.Date
	}
	return d.Year
}

// Place is a birthplace or address node.
type Place struct {
	Street  string `xml:"STREET"`
	City    string `xml:"CITY"`
	Country string `xml:"COUNTRY"`
	Note    string `xml:"NOTE"`
}

// TravelDocument is an identity document node.
type TravelDocument struct {
	TypeOfDocument string `xml:"TYPE_OF_DOCUMENT"`
	Number         string `xml:"NUMBER"`
	IssuingCountry string `xml:"ISSUING_COUNTRY"`
}

const listDelimiter = ";"

func joinAliases(aliases []Alias) string {
	names := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, listDelimiter)
}

func joinPlaces(places []Place, pick func(Place) string) string {
	values := make([]string, 0, len(places))
	for _, p := range places {
		if v := pick(p); v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, listDelimiter)
}

func joinDocuments(docs []TravelDocument, pick func(TravelDocument) string) string {
	values := make([]string, 0, len(docs))
	for _, d := range docs {
		if v := pick(d); v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, listDelimiter)
}

// row flattens a feed individual into the column shape the field mapper
// understands, so the feed path reuses the exact same normalization and
// sentinel handling as bulk uploads.
func (i Individual) row() map[string]string {
	dob := ""
	if len(i.DatesOfBirth) > 0 {
		dob = i.DatesOfBirth[0].Value()
	}
	reference := i.ReferenceNumber
	if reference == "" {
		reference = i.DataID
	}
	return map[string]string{
		"reference_number":    reference,
		"first_name":          i.FirstName,
		"second_name":         i.SecondName,
		"third_name":          i.ThirdName,
		"individual_alias":    joinAliases(i.Aliases),
		"dob":                 dob,
		"nationality":         strings.Join(i.Nationalities, listDelimiter),
		"birth_city":          joinPlaces(i.PlacesOfBirth, func(p Place) string { return p.City }),
		"birth_country":       joinPlaces(i.PlacesOfBirth, func(p Place) string { return p.Country }),
		"address_city":        joinPlaces(i.Addresses, func(p Place) string { return p.City }),
		"address_country":     joinPlaces(i.Addresses, func(p Place) string { return p.Country }),
		"doc_type":            joinDocuments(i.Documents, func(d TravelDocument) string { return d.TypeOfDocument }),
		"doc_number":          joinDocuments(i.Documents, func(d TravelDocument) string { return d.Number }),
		"doc_issuing_country": joinDocuments(i.Documents, func(d TravelDocument) string { return d.IssuingCountry }),
	}
}

func (e Entity) row() map[string]string {
	reference := e.ReferenceNumber
	if reference == "" {
		reference = e.DataID
	}
	return map[string]string{
		"reference_number": reference,
		"entity_name":      e.Name,
		"entity_alias":     joinAliases(e.Aliases),
		"street":           joinPlaces(e.Addresses, func(p Place) string { return p.Street }),
		"address_city":     joinPlaces(e.Addresses, func(p Place) string { return p.City }),
		"address_country":  joinPlaces(e.Addresses, func(p Place) string { return p.Country }),
	}
}
