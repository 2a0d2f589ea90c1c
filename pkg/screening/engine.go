package screening

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// Index is the candidate source the engine re-ranks. Satisfied by
// searchindex.Manager.
type Index interface {
	Query(ctx context.Context, term string, kind *models.RecordKind, limit, fuzziness int) ([]searchindex.Document, error)
}

// Engine turns a free-text name into ranked screening hits. The index does
// broad recall; the engine re-scores every candidate with the symmetric
// token-level similarity and sorts on that, so index relevance only breaks
// ties.
type Engine struct {
	index         Index
	logger        ectologger.Logger
	maxCandidates int
	fuzziness     int
}

// NewEngine creates a search engine over the given candidate index.
func NewEngine(index Index, logger ectologger.Logger, maxCandidates, fuzziness int) *Engine {
	if maxCandidates < 1 {
		maxCandidates = 100
	}
	return &Engine{
		index:         index,
		logger:        logger,
		maxCandidates: maxCandidates,
		fuzziness:     fuzziness,
	}
}

// Search screens a name against the indexed lists. The kind pointer is an
// explicit filter: nil means both individuals and entities.
func (e *Engine) Search(ctx context.Context, query string, kind *models.RecordKind) ([]models.SearchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "screening.Engine.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "search term is required")
	}

	docs, err := e.index.Query(ctx, query, kind, e.maxCandidates, e.fuzziness)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, models.SearchResult{
			ReferenceNumber:      doc.ReferenceNumber,
			Kind:                 models.RecordKind(doc.Kind),
			FullName:             doc.FullName,
			FirstName:            doc.FirstName,
			SecondName:           doc.SecondName,
			ThirdName:            doc.ThirdName,
			Aliases:              doc.Aliases,
			Source:               doc.Source,
			ListType:             models.ListType(doc.ListType),
			SimilarityPercentage: bestScore(query, doc),
		})
	}

	// Stable: candidates with equal scores keep index relevance order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityPercentage > results[j].SimilarityPercentage
	})

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"query":   query,
		"results": len(results),
	}).Debug("Completed screening search")
	return results, nil
}

// bestScore scores the query against every name variant the record carries
// and keeps the best. A strong alias match matters as much as a primary-name
// match.
func bestScore(query string, doc searchindex.Document) float64 {
	best := Similarity(query, doc.FullName)
	for _, alias := range doc.Aliases {
		if s := Similarity(query, alias); s > best {
			best = s
		}
	}
	return best
}
