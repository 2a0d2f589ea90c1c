// Package feed synchronizes the canonical store with the remote consolidated
// list. The whole document is fetched and parsed up front; individual records
// that fail are logged and skipped so one bad node never aborts a sync.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	entityrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/entity"
	individualrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/individual"
	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/events"
	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// IndividualStore is the individual persistence surface the syncer needs.
// Satisfied by individual.Repository.
type IndividualStore interface {
	Upsert(ctx context.Context, ind models.Individual) (*individualrepo.UpsertResult, error)
	GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Individual, error)
}

// EntityStore is the entity persistence surface the syncer needs. Satisfied
// by entity.Repository.
type EntityStore interface {
	Upsert(ctx context.Context, ent models.Entity) (*entityrepo.UpsertResult, error)
	GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Entity, error)
}

// Indexer receives documents for the search index. Satisfied by
// searchindex.Manager.
type Indexer interface {
	BulkIndex(ctx context.Context, docs []searchindex.Document) error
}

// Config holds feed syncer configuration.
type Config struct {
	URL         string
	Timeout     time.Duration
	SourceLabel string
	BatchSize   int
}

// Syncer pulls the remote consolidated list into the canonical store.
type Syncer struct {
	cfg         Config
	client      *http.Client
	logger      ectologger.Logger
	mapper      *mapper.Mapper
	individuals IndividualStore
	entities    EntityStore
	index       Indexer
	emitter     *events.Emitter
}

// NewSyncer creates a feed syncer. emitter may be nil when event emission is
// disabled.
func NewSyncer(
	cfg Config,
	logger ectologger.Logger,
	m *mapper.Mapper,
	individuals IndividualStore,
	entities EntityStore,
	index Indexer,
	emitter *events.Emitter,
) *Syncer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &Syncer{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		mapper:      m,
		individuals: individuals,
		entities:    entities,
		index:       index,
		emitter:     emitter,
	}
}

// Sync fetches and ingests the remote list once. Fetch or parse failure of
// the top-level document aborts the call; per-record failures are logged,
// skipped, and counted.
func (s *Syncer) Sync(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "feed.Syncer.Sync")
	defer span.End()

	start := time.Now()
	log := s.logger.WithContext(ctx).WithFields(map[string]any{"feed_url": s.cfg.URL})

	doc, err := s.fetch(ctx)
	if err != nil {
		log.WithError(err).Error("Feed sync aborted")
		return err
	}

	prov := mapper.Provenance{
		Source:   s.cfg.SourceLabel,
		ListType: models.ListTypeExternalSanctions,
	}

	var (
		individuals int
		entities    int
		skipped     int
		batch       []searchindex.Document
	)

	flush := func() {
		if len(batch) == 0 || s.index == nil {
			return
		}
		if err := s.index.BulkIndex(ctx, batch); err != nil {
			log.WithError(err).WithFields(map[string]any{"count": len(batch)}).Error("Failed to index feed batch")
		}
		batch = batch[:0]
	}

	for _, node := range doc.Individuals {
		if err := ctx.Err(); err != nil {
			return err
		}
		indexDoc, err := s.syncIndividual(ctx, node, prov)
		if err != nil {
			skipped++
			log.WithError(err).WithFields(map[string]any{"reference_number": node.ReferenceNumber, "dataid": node.DataID}).Warn("Skipped feed individual")
			continue
		}
		if indexDoc != nil {
			individuals++
			batch = append(batch, *indexDoc)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		}
	}

	for _, node := range doc.Entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		indexDoc, err := s.syncEntity(ctx, node, prov)
		if err != nil {
			skipped++
			log.WithError(err).WithFields(map[string]any{"reference_number": node.ReferenceNumber, "dataid": node.DataID}).Warn("Skipped feed entity")
			continue
		}
		if indexDoc != nil {
			entities++
			batch = append(batch, *indexDoc)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		}
	}
	flush()

	duration := time.Since(start)
	log.WithFields(map[string]any{
		"individuals": individuals,
		"entities":    entities,
		"skipped":     skipped,
		"duration_ms": duration.Milliseconds(),
	}).Info("Completed feed sync")

	if err := s.emitter.EmitSyncCompleted(ctx, s.cfg.SourceLabel, individuals, entities, skipped, duration); err != nil {
		log.WithError(err).Debug("Sync event emission failed")
	}
	return nil
}

func (s *Syncer) fetch(ctx context.Context) (*Document, error) {
	ctx, span := tracing.StartSpan(ctx, "feed.Syncer.fetch")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var doc Document
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed document: %w", err)
	}
	return &doc, nil
}

// syncIndividual maps one feed node and writes it if it is genuinely new or
// the same record as the stored one. The feed reuses reference numbers across
// distinct people, so identity is the reference number plus the distinguishing
// composite (aliases, birth year, document numbers): a reference collision
// with a different composite is logged and left alone rather than clobbered.
// The bulk path deliberately does not share this rule.
func (s *Syncer) syncIndividual(ctx context.Context, node Individual, prov mapper.Provenance) (*searchindex.Document, error) {
	ind := s.mapper.MapIndividual(node.row(), models.DialectExternal, prov)

	existing, err := s.individuals.GetByReference(ctx, ind.ReferenceNumber, ind.ListType)
	if err != nil {
		return nil, err
	}
	if existing != nil && individualCompositeKey(existing) != individualCompositeKey(&ind) {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"reference_number": ind.ReferenceNumber,
			"existing_name":    existing.DisplayName(),
			"incoming_name":    ind.DisplayName(),
		}).Warn("Feed reference number collision with a different record, keeping existing")
		return nil, nil
	}

	result, err := s.individuals.Upsert(ctx, ind)
	if err != nil {
		return nil, err
	}
	doc := searchindex.FromIndividual(result.Individual)
	return &doc, nil
}

func (s *Syncer) syncEntity(ctx context.Context, node Entity, prov mapper.Provenance) (*searchindex.Document, error) {
	ent := s.mapper.MapEntity(node.row(), models.DialectExternal, prov)

	existing, err := s.entities.GetByReference(ctx, ent.ReferenceNumber, ent.ListType)
	if err != nil {
		return nil, err
	}
	if existing != nil && entityCompositeKey(existing) != entityCompositeKey(&ent) {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"reference_number": ent.ReferenceNumber,
			"existing_name":    existing.Name,
			"incoming_name":    ent.Name,
		}).Warn("Feed reference number collision with a different record, keeping existing")
		return nil, nil
	}

	result, err := s.entities.Upsert(ctx, ent)
	if err != nil {
		return nil, err
	}
	doc := searchindex.FromEntity(result.Entity)
	return &doc, nil
}

func individualCompositeKey(ind *models.Individual) string {
	aliases := append([]string(nil), ind.Aliases...)
	sort.Strings(aliases)
	docNumbers := append([]string(nil), ind.DocNumbers...)
	sort.Strings(docNumbers)

	return strings.Join([]string{
		ind.ReferenceNumber,
		strings.Join(aliases, ","),
		ind.BirthYear(),
		strings.Join(docNumbers, ","),
	}, "|")
}

func entityCompositeKey(ent *models.Entity) string {
	aliases := append([]string(nil), ent.Aliases...)
	sort.Strings(aliases)

	return strings.Join([]string{
		ent.ReferenceNumber,
		strings.Join(aliases, ","),
	}, "|")
}
