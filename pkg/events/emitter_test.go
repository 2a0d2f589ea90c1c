package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanction-Guard/sanctionguard/pkg/kafka"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

type fakePublisher struct {
	events []*kafka.ScreeningEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event *kafka.ScreeningEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func TestEmitter(t *testing.T) {
	ctx := context.Background()

	t.Run("record upserted event carries key and payload", func(t *testing.T) {
		publisher := &fakePublisher{}
		emitter := NewEmitter(publisher, testLogger())

		err := emitter.EmitRecordUpserted(ctx, models.RecordKindIndividual, "LSL/IN/1/2024", models.ListTypeLocalSanctions, true)
		require.NoError(t, err)
		require.Len(t, publisher.events, 1)

		event := publisher.events[0]
		assert.Equal(t, string(EventTypeRecordUpserted), event.EventType)
		assert.Equal(t, string(models.ListTypeLocalSanctions)+":LSL/IN/1/2024", event.Key)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, SchemaVersion, payload["schema_version"])
		assert.Equal(t, "LSL/IN/1/2024", payload["reference_number"])
		assert.Equal(t, true, payload["is_new"])
	})

	t.Run("import completed event is keyed by job id", func(t *testing.T) {
		publisher := &fakePublisher{}
		emitter := NewEmitter(publisher, testLogger())

		job := &models.ImportJob{ID: "job-1", Filename: "list.csv", Status: models.ImportStatusCompleted, EntriesUpdated: 12}
		require.NoError(t, emitter.EmitImportCompleted(ctx, job))
		require.Len(t, publisher.events, 1)
		assert.Equal(t, "job-1", publisher.events[0].Key)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(publisher.events[0].Data, &payload))
		assert.Equal(t, float64(12), payload["entries_updated"])
	})

	t.Run("sync completed event reports counts and duration", func(t *testing.T) {
		publisher := &fakePublisher{}
		emitter := NewEmitter(publisher, testLogger())

		require.NoError(t, emitter.EmitSyncCompleted(ctx, "un_consolidated", 10, 3, 1, 1500*time.Millisecond))
		require.Len(t, publisher.events, 1)
		assert.Equal(t, "un_consolidated", publisher.events[0].Key)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(publisher.events[0].Data, &payload))
		assert.Equal(t, float64(1500), payload["duration_ms"])
		assert.Equal(t, float64(10), payload["individuals"])
	})

	t.Run("publish failures surface to the caller", func(t *testing.T) {
		publisher := &fakePublisher{err: errors.New("broker unavailable")}
		emitter := NewEmitter(publisher, testLogger())

		err := emitter.EmitRecordUpserted(ctx, models.RecordKindEntity, "6908555", models.ListTypeExternalSanctions, false)
		assert.Error(t, err)
	})

	t.Run("nil emitter drops events", func(t *testing.T) {
		var emitter *Emitter
		assert.NoError(t, emitter.EmitRecordUpserted(ctx, models.RecordKindIndividual, "x", models.ListTypeLocalSanctions, true))
		assert.NoError(t, emitter.EmitImportCompleted(ctx, &models.ImportJob{}))
		assert.NoError(t, emitter.EmitSyncCompleted(ctx, "src", 0, 0, 0, 0))
	})
}
