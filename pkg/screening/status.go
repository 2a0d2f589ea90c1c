package screening

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Sanction-Guard/sanctionguard/internal/cache"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// Counter reports how many documents the search index holds. Satisfied by
// searchindex.Manager.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// UpdateSource reports when a record table last changed. Satisfied by the
// individual and entity repositories.
type UpdateSource interface {
	LastUpdated(ctx context.Context) (*time.Time, error)
}

// StatusService answers "how fresh is the search data". The result is cached
// for a short TTL because status is polled far more often than it changes.
type StatusService struct {
	index       Counter
	individuals UpdateSource
	entities    UpdateSource
	cache       *cache.StatusCache
	logger      ectologger.Logger
}

// NewStatusService creates a status service. cache may be nil when caching is
// disabled.
func NewStatusService(index Counter, individuals, entities UpdateSource, statusCache *cache.StatusCache, logger ectologger.Logger) *StatusService {
	return &StatusService{
		index:       index,
		individuals: individuals,
		entities:    entities,
		cache:       statusCache,
		logger:      logger,
	}
}

// Status returns the current record count and the most recent update time
// across both record tables.
func (s *StatusService) Status(ctx context.Context) (*models.SearchStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "screening.StatusService.Status")
	defer span.End()

	if cached := s.cache.Get(ctx); cached != nil {
		return cached, nil
	}

	total, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}

	status := models.SearchStatus{TotalRecords: total}
	status.LastUpdated = s.latest(ctx)

	s.cache.Set(ctx, status)
	return &status, nil
}

// latest returns the newer of the two tables' last-updated times. A failing
// table degrades to "unknown" instead of failing the status call.
func (s *StatusService) latest(ctx context.Context) *time.Time {
	var latest *time.Time
	for _, source := range []UpdateSource{s.individuals, s.entities} {
		last, err := source.LastUpdated(ctx)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to read last updated time")
			continue
		}
		if last != nil && (latest == nil || last.After(*latest)) {
			latest = last
		}
	}
	return latest
}
