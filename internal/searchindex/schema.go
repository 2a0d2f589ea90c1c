package searchindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const docTypeName = "record"

// buildIndexMapping configures the index schema. Name fields use the standard
// analyzer so tokens match regardless of order and case; identifier fields use
// the keyword analyzer so filters are exact.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	docMapping.AddFieldMappingsAt("reference_number", buildKeywordField())
	docMapping.AddFieldMappingsAt("kind", buildKeywordField())
	docMapping.AddFieldMappingsAt("list_type", buildKeywordField())
	docMapping.AddFieldMappingsAt("source", buildKeywordField())

	docMapping.AddFieldMappingsAt("full_name", buildTextField())
	docMapping.AddFieldMappingsAt("first_name", buildTextField())
	docMapping.AddFieldMappingsAt("second_name", buildTextField())
	docMapping.AddFieldMappingsAt("third_name", buildTextField())
	docMapping.AddFieldMappingsAt("aliases", buildTextField())

	docMapping.AddFieldMappingsAt("created_at", buildDateTimeField())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name
	indexMapping.AddDocumentMapping(docTypeName, docMapping)
	indexMapping.DefaultType = docTypeName
	return indexMapping
}

func buildTextField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = standard.Name
	fm.Store = true
	fm.Index = true
	return fm
}

func buildKeywordField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	fm.Index = true
	return fm
}

func buildDateTimeField() *mapping.FieldMapping {
	fm := bleve.NewDateTimeFieldMapping()
	fm.Store = true
	fm.Index = true
	return fm
}
