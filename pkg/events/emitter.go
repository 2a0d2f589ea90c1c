// Package events handles event emission for ingestion lifecycle changes
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Sanction-Guard/sanctionguard/pkg/kafka"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	EventTypeRecordUpserted  EventType = "record.upserted"
	EventTypeImportCompleted EventType = "import.completed"
	EventTypeSyncCompleted   EventType = "sync.completed"
)

// Publisher is the transport the emitter writes to. Satisfied by
// kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event *kafka.ScreeningEvent) error
}

// Emitter publishes ingestion lifecycle events. Event failures are best
// effort: they are logged by callers and never fail the ingestion itself.
// A nil Emitter is valid and drops everything.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRecordUpserted emits an event for a record created or replaced by
// ingestion.
func (e *Emitter) EmitRecordUpserted(ctx context.Context, kind models.RecordKind, referenceNumber string, listType models.ListType, isNew bool) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRecordUpserted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":   SchemaVersion,
		"kind":             kind,
		"reference_number": referenceNumber,
		"list_type":        listType,
		"is_new":           isNew,
	})

	event := &kafka.ScreeningEvent{
		EventType: string(EventTypeRecordUpserted),
		Key:       string(listType) + ":" + referenceNumber,
		Data:      data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit record.upserted event")
		return err
	}
	return nil
}

// EmitImportCompleted emits an event when a bulk upload reaches a terminal
// state.
func (e *Emitter) EmitImportCompleted(ctx context.Context, job *models.ImportJob) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitImportCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":  SchemaVersion,
		"job_id":          job.ID,
		"filename":        job.Filename,
		"status":          job.Status,
		"entries_updated": job.EntriesUpdated,
	})

	event := &kafka.ScreeningEvent{
		EventType: string(EventTypeImportCompleted),
		Key:       job.ID,
		Data:      data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit import.completed event")
		return err
	}
	return nil
}

// EmitSyncCompleted emits an event after a remote feed sync pass.
func (e *Emitter) EmitSyncCompleted(ctx context.Context, source string, individuals, entities, skipped int, duration time.Duration) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSyncCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"source":         source,
		"individuals":    individuals,
		"entities":       entities,
		"skipped":        skipped,
		"duration_ms":    duration.Milliseconds(),
	})

	event := &kafka.ScreeningEvent{
		EventType: string(EventTypeSyncCompleted),
		Key:       source,
		Data:      data,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sync.completed event")
		return err
	}
	return nil
}
