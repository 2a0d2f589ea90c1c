package searchindex

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// Manager owns the on-disk search index. All reads and writes go through it;
// the pipeline never touches bleve directly.
type Manager struct {
	path   string
	index  bleve.Index
	mu     sync.RWMutex
	logger ectologger.Logger
}

// NewManager creates a manager for the index at path. Call Open before use.
func NewManager(path string, logger ectologger.Logger) *Manager {
	return &Manager{
		path:   path,
		logger: logger,
	}
}

// Open opens the existing index at the configured path, creating a fresh one
// with the record schema when none exists yet.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index != nil {
		return nil
	}

	index, err := bleve.Open(m.path)
	if err == nil {
		m.index = index
		m.logger.WithContext(ctx).WithFields(map[string]any{"path": m.path}).Info("Opened search index")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"path": m.path}).Error("Failed to create search index directory")
		return err
	}

	index, err = bleve.New(m.path, buildIndexMapping())
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"path": m.path}).Error("Failed to create search index")
		return err
	}

	m.index = index
	m.logger.WithContext(ctx).WithFields(map[string]any{"path": m.path}).Info("Created search index")
	return nil
}

// Close flushes and closes the index. Safe to call twice.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil {
		return nil
	}
	err := m.index.Close()
	m.index = nil
	return err
}

// Index writes a single document, replacing any previous version of the same
// record.
func (m *Manager) Index(ctx context.Context, doc Document) error {
	ctx, span := tracing.StartSpan(ctx, "searchindex.Manager.Index")
	defer span.End()

	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()
	if index == nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "search index is not open")
	}

	if err := index.Index(doc.ID(), doc); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doc_id": doc.ID()}).Error("Failed to index document")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to index document")
	}
	return nil
}

// BulkIndex writes documents in a single batch commit.
func (m *Manager) BulkIndex(ctx context.Context, docs []Document) error {
	ctx, span := tracing.StartSpan(ctx, "searchindex.Manager.BulkIndex")
	defer span.End()

	if len(docs) == 0 {
		return nil
	}

	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()
	if index == nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "search index is not open")
	}

	batch := index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID(), doc); err != nil {
			m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doc_id": doc.ID()}).Error("Failed to add document to index batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to index documents")
		}
	}

	if err := index.Batch(batch); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(docs)}).Error("Failed to commit index batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to index documents")
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{"count": len(docs)}).Debug("Committed index batch")
	return nil
}

// Query runs a broad-recall candidate search. It matches the term against all
// name fields and aliases, with a fuzzy variant to catch misspellings, and
// optionally restricts results to one record kind. Ranking is the caller's
// job; this stage only has to avoid missing plausible candidates.
func (m *Manager) Query(ctx context.Context, term string, kind *models.RecordKind, limit, fuzziness int) ([]Document, error) {
	ctx, span := tracing.StartSpan(ctx, "searchindex.Manager.Query")
	defer span.End()

	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()
	if index == nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "search index is not open")
	}

	if limit < 1 {
		limit = 100
	}

	nameFields := []string{"full_name", "first_name", "second_name", "third_name", "aliases"}
	var candidates []query.Query
	for _, field := range nameFields {
		exact := bleve.NewMatchQuery(term)
		exact.SetField(field)
		candidates = append(candidates, exact)

		if fuzziness > 0 {
			fuzzy := bleve.NewMatchQuery(term)
			fuzzy.SetField(field)
			fuzzy.SetFuzziness(fuzziness)
			candidates = append(candidates, fuzzy)
		}
	}

	var q query.Query = bleve.NewDisjunctionQuery(candidates...)
	if kind != nil {
		kindQuery := bleve.NewTermQuery(string(*kind))
		kindQuery.SetField("kind")
		q = bleve.NewConjunctionQuery(q, kindQuery)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"*"}

	result, err := index.SearchInContext(ctx, req)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"term": term}).Error("Search index query failed")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "search query failed")
	}

	docs := make([]Document, 0, len(result.Hits))
	for _, hit := range result.Hits {
		docs = append(docs, documentFromFields(hit.Fields))
	}
	return docs, nil
}

// Count returns the number of documents in the index.
func (m *Manager) Count(ctx context.Context) (uint64, error) {
	ctx, span := tracing.StartSpan(ctx, "searchindex.Manager.Count")
	defer span.End()

	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()
	if index == nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "search index is not open")
	}

	count, err := index.DocCount()
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Error("Failed to count index documents")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count index documents")
	}
	return count, nil
}

// documentFromFields rebuilds a Document from stored hit fields. Bleve returns
// a bare string for single-valued array fields, so aliases handles both
// shapes.
func documentFromFields(fields map[string]interface{}) Document {
	return Document{
		ReferenceNumber: fieldString(fields, "reference_number"),
		Kind:            fieldString(fields, "kind"),
		ListType:        fieldString(fields, "list_type"),
		Source:          fieldString(fields, "source"),
		FullName:        fieldString(fields, "full_name"),
		FirstName:       fieldString(fields, "first_name"),
		SecondName:      fieldString(fields, "second_name"),
		ThirdName:       fieldString(fields, "third_name"),
		Aliases:         fieldStrings(fields, "aliases"),
		CreatedAt:       fieldTime(fields, "created_at"),
	}
}

func fieldTime(fields map[string]interface{}, key string) time.Time {
	if s, ok := fields[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fieldString(fields map[string]interface{}, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func fieldStrings(fields map[string]interface{}, key string) []string {
	switch v := fields[key].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
