package ingest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
)

type fakeJobAdmin struct {
	fakeJobStore
	created  []string
	existing map[string]bool
}

func (f *fakeJobAdmin) Create(ctx context.Context, filename, fileType string, fileSize int64) (*models.ImportJob, error) {
	f.created = append(f.created, filename)
	return &models.ImportJob{ID: fmt.Sprintf("job-%d", len(f.created)), Filename: filename, Status: models.ImportStatusPending}, nil
}

func (f *fakeJobAdmin) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	return f.existing[filename], nil
}

func (f *fakeJobAdmin) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	return &models.ImportJob{ID: id}, nil
}

func (f *fakeJobAdmin) Recent(ctx context.Context, limit int) ([]models.ImportJob, error) {
	return nil, nil
}

type uploadFile struct {
	name    string
	content string
}

func buildFileHeaders(t *testing.T, files []uploadFile) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, file := range files {
		fw, err := w.CreateFormFile("files", file.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func newTestService(jobs *fakeJobAdmin, maxFileBytes int64, maxFiles int) (*Service, *fakeIndividualStore) {
	individuals := &fakeIndividualStore{}
	pipeline := NewPipeline(testLogger(), mapper.New(), individuals, &fakeEntityStore{}, jobs, &fakeIndexer{}, nil, 100)
	return NewService(pipeline, jobs, nil, testLogger(), maxFileBytes, maxFiles), individuals
}

func TestServiceUpload(t *testing.T) {
	ctx := context.Background()
	validCSV := "Reference Number,First Name,Second Name,DOB\nLSL/IN/1/2024,Ahmed,Sharif,1975\n"

	t.Run("accepts a valid csv and returns its job", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, individuals := newTestService(jobs, 1<<20, 5)

		result, err := svc.Upload(ctx, buildFileHeaders(t, []uploadFile{{"list.csv", validCSV}}))
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, "list.csv", result[0].Filename)
		assert.Len(t, individuals.upserts, 1)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, _ := newTestService(jobs, 1<<20, 5)

		_, err := svc.Upload(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("rejects non csv extensions before creating jobs", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, _ := newTestService(jobs, 1<<20, 5)

		files := buildFileHeaders(t, []uploadFile{
			{"list.csv", validCSV},
			{"list.xlsx", "not a csv"},
		})
		_, err := svc.Upload(ctx, files)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		assert.Empty(t, jobs.created, "no job should exist when any file in the batch is invalid")
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, _ := newTestService(jobs, 16, 5)

		_, err := svc.Upload(ctx, buildFileHeaders(t, []uploadFile{{"list.csv", validCSV}}))
		require.Error(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, httperror.GetStatusCode(err))
	})

	t.Run("rejects the same filename twice in one batch", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, _ := newTestService(jobs, 1<<20, 5)

		files := buildFileHeaders(t, []uploadFile{
			{"list.csv", validCSV},
			{"list.csv", validCSV},
		})
		_, err := svc.Upload(ctx, files)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
		assert.Empty(t, jobs.created)
	})

	t.Run("rejects a filename that was already imported", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{"list.csv": true}}
		svc, _ := newTestService(jobs, 1<<20, 5)

		_, err := svc.Upload(ctx, buildFileHeaders(t, []uploadFile{{"list.csv", validCSV}}))
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("rejects batches above the file count limit", func(t *testing.T) {
		jobs := &fakeJobAdmin{existing: map[string]bool{}}
		svc, _ := newTestService(jobs, 1<<20, 1)

		files := buildFileHeaders(t, []uploadFile{
			{"a.csv", validCSV},
			{"b.csv", validCSV},
		})
		_, err := svc.Upload(ctx, files)
		require.Error(t, err)
		assert.Equal(t, http.StatusRequestEntityTooLarge, httperror.GetStatusCode(err))
	})
}
