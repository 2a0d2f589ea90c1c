// Package ingest runs the bulk-upload pipeline: it streams a CSV file,
// detects its shape once, maps each row to a canonical record, upserts it,
// and indexes it for search. Row-level failures are skipped and counted;
// only structural problems fail the whole file.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	entityrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/entity"
	individualrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/individual"
	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/detect"
	"github.com/Sanction-Guard/sanctionguard/pkg/events"
	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// SourceBulkUpload labels records created by the upload path.
const SourceBulkUpload = "bulk_upload"

// IndividualStore persists individual records. Satisfied by
// individual.Repository.
type IndividualStore interface {
	Upsert(ctx context.Context, ind models.Individual) (*individualrepo.UpsertResult, error)
}

// EntityStore persists entity records. Satisfied by entity.Repository.
type EntityStore interface {
	Upsert(ctx context.Context, ent models.Entity) (*entityrepo.UpsertResult, error)
}

// JobStore tracks import job lifecycle. Satisfied by importjob.Repository.
type JobStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, entriesUpdated int) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

// Indexer receives documents for the search index. Satisfied by
// searchindex.Manager.
type Indexer interface {
	BulkIndex(ctx context.Context, docs []searchindex.Document) error
}

// Pipeline is the bulk-upload ingestion pipeline.
type Pipeline struct {
	logger      ectologger.Logger
	mapper      *mapper.Mapper
	individuals IndividualStore
	entities    EntityStore
	jobs        JobStore
	index       Indexer
	emitter     *events.Emitter
	batchSize   int
}

// NewPipeline creates an ingestion pipeline. emitter may be nil when event
// emission is disabled.
func NewPipeline(
	logger ectologger.Logger,
	m *mapper.Mapper,
	individuals IndividualStore,
	entities EntityStore,
	jobs JobStore,
	index Indexer,
	emitter *events.Emitter,
	batchSize int,
) *Pipeline {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Pipeline{
		logger:      logger,
		mapper:      m,
		individuals: individuals,
		entities:    entities,
		jobs:        jobs,
		index:       index,
		emitter:     emitter,
		batchSize:   batchSize,
	}
}

// Ingest processes one uploaded CSV. It owns the job's lifecycle: the job is
// marked Processing before the first row and always ends Completed or Failed.
// The returned count is the number of records written.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, job *models.ImportJob) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Pipeline.Ingest")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":   job.ID,
		"filename": job.Filename,
	})

	if err := p.jobs.MarkProcessing(ctx, job.ID); err != nil {
		return 0, err
	}

	count, err := p.process(ctx, r, job, log)
	if err != nil {
		if markErr := p.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to mark import job failed")
		}
		job.Status = models.ImportStatusFailed
		p.emitCompleted(ctx, job, log)
		return 0, err
	}

	if err := p.jobs.MarkCompleted(ctx, job.ID, count); err != nil {
		return count, err
	}
	job.Status = models.ImportStatusCompleted
	job.EntriesUpdated = count
	p.emitCompleted(ctx, job, log)

	log.WithFields(map[string]any{"entries_updated": count}).Info("Completed import")
	return count, nil
}

func (p *Pipeline) process(ctx context.Context, r io.Reader, job *models.ImportJob, log ectologger.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "file is empty")
	}
	if err != nil {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to read header row: %v", err)
	}
	headerEmpty := true
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if header[i] != "" {
			headerEmpty = false
		}
	}
	if headerEmpty {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "header row is empty")
	}

	prov := mapper.Provenance{
		Source:      SourceBulkUpload,
		SourceFile:  job.Filename,
		ImportJobID: &job.ID,
	}

	var (
		kind     models.RecordKind
		dialect  models.Dialect
		detected bool
		count    int
		skipped  int
		batch    []searchindex.Document
	)

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV row: skip it, keep streaming.
			skipped++
			log.WithError(err).WithFields(map[string]any{"row": count + skipped + 1}).Warn("Skipped malformed row")
			continue
		}

		row := rowMap(header, record)

		rowKind := kind
		if !detected {
			rowKind = detect.RecordKind(row)
		}
		if !mapper.HasIdentity(row, rowKind) {
			// The mapper would synthesize a reference for a nameless record;
			// a row with no identifying fields is a skip, not a new record.
			skipped++
			log.WithFields(map[string]any{"row": count + skipped + 1}).Warn("Skipped row with no identifying fields")
			continue
		}

		if !detected {
			kind = rowKind
			dialect = detect.Dialect(row)
			prov.ListType = models.ListTypeForDialect(dialect)
			detected = true
			log.WithFields(map[string]any{"kind": kind, "dialect": dialect}).Info("Detected file format")
		}

		doc, err := p.upsertRow(ctx, row, kind, dialect, prov)
		if err != nil {
			skipped++
			log.WithError(err).WithFields(map[string]any{"row": count + skipped + 1}).Warn("Skipped row that failed to persist")
			continue
		}

		count++
		batch = append(batch, doc)
		if len(batch) >= p.batchSize {
			p.flushBatch(ctx, batch, log)
			batch = batch[:0]
		}
	}

	if !detected {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "file contains no data rows")
	}

	p.flushBatch(ctx, batch, log)

	if skipped > 0 {
		log.WithFields(map[string]any{"skipped": skipped}).Warn("Import finished with skipped rows")
	}
	return count, nil
}

// upsertRow maps and persists a single row, returning its index document.
func (p *Pipeline) upsertRow(ctx context.Context, row map[string]string, kind models.RecordKind, dialect models.Dialect, prov mapper.Provenance) (searchindex.Document, error) {
	if kind == models.RecordKindEntity {
		ent := p.mapper.MapEntity(row, dialect, prov)
		result, err := p.entities.Upsert(ctx, ent)
		if err != nil {
			return searchindex.Document{}, err
		}
		p.emitUpserted(ctx, models.RecordKindEntity, result.Entity.ReferenceNumber, result.Entity.ListType, result.IsNew)
		return searchindex.FromEntity(result.Entity), nil
	}

	ind := p.mapper.MapIndividual(row, dialect, prov)
	result, err := p.individuals.Upsert(ctx, ind)
	if err != nil {
		return searchindex.Document{}, err
	}
	p.emitUpserted(ctx, models.RecordKindIndividual, result.Individual.ReferenceNumber, result.Individual.ListType, result.IsNew)
	return searchindex.FromIndividual(result.Individual), nil
}

// flushBatch pushes queued documents to the index. Index failures never fail
// the import; the store stays authoritative and the index catches up on the
// next write.
func (p *Pipeline) flushBatch(ctx context.Context, batch []searchindex.Document, log ectologger.Logger) {
	if len(batch) == 0 || p.index == nil {
		return
	}
	if err := p.index.BulkIndex(ctx, batch); err != nil {
		log.WithError(err).WithFields(map[string]any{"count": len(batch)}).Error("Failed to index batch")
	}
}

func (p *Pipeline) emitUpserted(ctx context.Context, kind models.RecordKind, referenceNumber string, listType models.ListType, isNew bool) {
	if err := p.emitter.EmitRecordUpserted(ctx, kind, referenceNumber, listType, isNew); err != nil {
		p.logger.WithContext(ctx).WithError(err).Debug("Record event emission failed")
	}
}

func (p *Pipeline) emitCompleted(ctx context.Context, job *models.ImportJob, log ectologger.Logger) {
	if err := p.emitter.EmitImportCompleted(ctx, job); err != nil {
		log.WithError(err).Debug("Import event emission failed")
	}
}

func rowMap(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, key := range header {
		if key == "" {
			continue
		}
		if i < len(record) {
			row[key] = strings.TrimSpace(record[i])
		} else {
			row[key] = ""
		}
	}
	return row
}
