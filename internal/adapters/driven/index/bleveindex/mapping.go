package bleveindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Stored field names not shared with the filter AST.
const (
	fieldFileSizeMB   = "file_size_mb"
	fieldUploadedAt   = "uploaded_at"
	fieldConnectionID = "connection_id"
	fieldRecordID     = "record_id"
	fieldChunkIndex   = "chunk_index"
)

// keywordFields are indexed verbatim so Eq and In compare exact values.
var keywordFields = map[string]bool{
	domain.FieldID:       true,
	domain.FieldCategory: true,
	domain.FieldTenantID: true,
	domain.FieldFileURL:  true,
	domain.FieldImage:    true,
	fieldConnectionID:    true,
	fieldRecordID:        true,
}

// textFields are analysed for full-text matching.
var textFields = []string{domain.FieldTitle, domain.FieldDescription, domain.FieldContent}

func newIndexMapping() *mapping.IndexMappingImpl {
	doc := bleve.NewDocumentMapping()

	for _, name := range textFields {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.IncludeTermVectors = true
		doc.AddFieldMappingsAt(name, f)
	}
	for name := range keywordFields {
		f := bleve.NewKeywordFieldMapping()
		f.Analyzer = keyword.Name
		f.IncludeInAll = false
		doc.AddFieldMappingsAt(name, f)
	}

	size := bleve.NewNumericFieldMapping()
	size.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldFileSizeMB, size)

	chunk := bleve.NewNumericFieldMapping()
	chunk.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldChunkIndex, chunk)

	uploaded := bleve.NewDateTimeFieldMapping()
	uploaded.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldUploadedAt, uploaded)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}
