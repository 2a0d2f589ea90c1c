package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entityrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/entity"
	individualrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/individual"
	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

type fakeIndividualStore struct {
	upserts  []models.Individual
	failName string
}

func (f *fakeIndividualStore) Upsert(ctx context.Context, ind models.Individual) (*individualrepo.UpsertResult, error) {
	if f.failName != "" && ind.FirstName == f.failName {
		return nil, errors.New("store unavailable")
	}
	f.upserts = append(f.upserts, ind)
	stored := ind
	stored.ID = "fixed-id"
	return &individualrepo.UpsertResult{Individual: &stored, IsNew: true}, nil
}

type fakeEntityStore struct {
	upserts []models.Entity
}

func (f *fakeEntityStore) Upsert(ctx context.Context, ent models.Entity) (*entityrepo.UpsertResult, error) {
	f.upserts = append(f.upserts, ent)
	stored := ent
	stored.ID = "fixed-id"
	return &entityrepo.UpsertResult{Entity: &stored, IsNew: true}, nil
}

type fakeJobStore struct {
	statuses       []models.ImportStatus
	entriesUpdated int
	errorMessage   string
}

func (f *fakeJobStore) MarkProcessing(ctx context.Context, id string) error {
	f.statuses = append(f.statuses, models.ImportStatusProcessing)
	return nil
}

func (f *fakeJobStore) MarkCompleted(ctx context.Context, id string, entriesUpdated int) error {
	f.statuses = append(f.statuses, models.ImportStatusCompleted)
	f.entriesUpdated = entriesUpdated
	return nil
}

func (f *fakeJobStore) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	f.statuses = append(f.statuses, models.ImportStatusFailed)
	f.errorMessage = errorMessage
	return nil
}

type fakeIndexer struct {
	docs    []searchindex.Document
	batches int
}

func (f *fakeIndexer) BulkIndex(ctx context.Context, docs []searchindex.Document) error {
	f.docs = append(f.docs, docs...)
	f.batches++
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func newTestPipeline(individuals *fakeIndividualStore, entities *fakeEntityStore, jobs *fakeJobStore, index *fakeIndexer) *Pipeline {
	return NewPipeline(testLogger(), mapper.New(), individuals, entities, jobs, index, nil, 100)
}

func testJob() *models.ImportJob {
	return &models.ImportJob{
		ID:       "job-1",
		Filename: "watchlist.csv",
		FileType: "text/csv",
		Status:   models.ImportStatusPending,
	}
}

func TestPipelineIngest(t *testing.T) {
	t.Run("valid file upserts and indexes every row", func(t *testing.T) {
		individuals := &fakeIndividualStore{}
		jobs := &fakeJobStore{}
		index := &fakeIndexer{}
		pipeline := newTestPipeline(individuals, &fakeEntityStore{}, jobs, index)

		csvData := strings.Join([]string{
			"Reference Number,First Name,Second Name,DOB,NIC",
			"LSL/IN/1/2024,John,Doe,1980-01-15,881234567V",
			"LSL/IN/2/2024,Jane,Smith,1975-06-02,751234567V",
		}, "\n")

		count, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, individuals.upserts, 2)
		assert.Len(t, index.docs, 2)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusCompleted}, jobs.statuses)
		assert.Equal(t, 2, jobs.entriesUpdated)
	})

	t.Run("row-level failures are skipped without failing the job", func(t *testing.T) {
		individuals := &fakeIndividualStore{failName: "Broken"}
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(individuals, &fakeEntityStore{}, jobs, &fakeIndexer{})

		csvData := strings.Join([]string{
			"Reference Number,First Name,Second Name,DOB,NIC",
			"LSL/IN/1/2024,John,Doe,1980-01-15,881234567V",
			"LSL/IN/2/2024,Broken,Row,1990-01-01,901234567V",
			"LSL/IN/3/2024,Jane,Smith,1975-06-02,751234567V",
		}, "\n")

		count, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusCompleted}, jobs.statuses)
	})

	t.Run("empty file is a structural error", func(t *testing.T) {
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(&fakeIndividualStore{}, &fakeEntityStore{}, jobs, &fakeIndexer{})

		_, err := pipeline.Ingest(context.Background(), strings.NewReader(""), testJob())
		require.Error(t, err)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusFailed}, jobs.statuses)
	})

	t.Run("empty header row is a structural error", func(t *testing.T) {
		individuals := &fakeIndividualStore{}
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(individuals, &fakeEntityStore{}, jobs, &fakeIndexer{})

		csvData := ",,,\nJohn,Doe,1980-01-15,881234567V\n"
		_, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.Error(t, err)
		assert.Empty(t, individuals.upserts)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusFailed}, jobs.statuses)
		assert.Contains(t, jobs.errorMessage, "header row is empty")
	})

	t.Run("rows with no identifying fields are skipped", func(t *testing.T) {
		individuals := &fakeIndividualStore{}
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(individuals, &fakeEntityStore{}, jobs, &fakeIndexer{})

		csvData := strings.Join([]string{
			"Reference Number,First Name,Second Name,DOB,NIC",
			"LSL/IN/1/2024,John,Doe,1980-01-15,881234567V",
			",,,,",
			"LSL/IN/3/2024,Jane,Smith,1975-06-02,751234567V",
		}, "\n")

		count, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, individuals.upserts, 2)
		assert.Equal(t, 2, jobs.entriesUpdated)
	})

	t.Run("file of only blank rows is a structural error", func(t *testing.T) {
		individuals := &fakeIndividualStore{}
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(individuals, &fakeEntityStore{}, jobs, &fakeIndexer{})

		csvData := "Reference Number,First Name,Second Name\n,,\n,,\n"
		_, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.Error(t, err)
		assert.Empty(t, individuals.upserts)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusFailed}, jobs.statuses)
		assert.Contains(t, jobs.errorMessage, "no data rows")
	})

	t.Run("header without data rows is a structural error", func(t *testing.T) {
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(&fakeIndividualStore{}, &fakeEntityStore{}, jobs, &fakeIndexer{})

		_, err := pipeline.Ingest(context.Background(), strings.NewReader("Reference Number,First Name\n"), testJob())
		require.Error(t, err)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusFailed}, jobs.statuses)
		assert.Contains(t, jobs.errorMessage, "no data rows")
	})

	t.Run("entity file routes rows to the entity store", func(t *testing.T) {
		entities := &fakeEntityStore{}
		pipeline := newTestPipeline(&fakeIndividualStore{}, entities, &fakeJobStore{}, &fakeIndexer{})

		csvData := strings.Join([]string{
			"Reference Number,Entity Name,Address City",
			"LSL/EN/1/2024,Zvezda Holdings,Moscow",
		}, "\n")

		count, err := pipeline.Ingest(context.Background(), strings.NewReader(csvData), testJob())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, entities.upserts, 1)
		assert.Equal(t, "Zvezda Holdings", entities.upserts[0].Name)
		assert.Equal(t, models.ListTypeLocalSanctions, entities.upserts[0].ListType)
	})

	t.Run("cancelled context stops the import", func(t *testing.T) {
		jobs := &fakeJobStore{}
		pipeline := newTestPipeline(&fakeIndividualStore{}, &fakeEntityStore{}, jobs, &fakeIndexer{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		csvData := "Reference Number,First Name\nLSL/IN/1/2024,John\n"
		_, err := pipeline.Ingest(ctx, strings.NewReader(csvData), testJob())
		require.Error(t, err)
		assert.Equal(t, []models.ImportStatus{models.ImportStatusProcessing, models.ImportStatusFailed}, jobs.statuses)
	})
}
