package ingest

import (
	"context"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Sanction-Guard/sanctionguard/internal/cache"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

// JobAdmin is the import-job surface the upload service needs. Satisfied by
// importjob.Repository.
type JobAdmin interface {
	Create(ctx context.Context, filename, fileType string, fileSize int64) (*models.ImportJob, error)
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Recent(ctx context.Context, limit int) ([]models.ImportJob, error)
}

// Service fronts the upload pipeline: it enforces the request-level upload
// rules, then runs each accepted file through the pipeline synchronously.
type Service struct {
	pipeline     *Pipeline
	jobs         JobAdmin
	statusCache  *cache.StatusCache
	logger       ectologger.Logger
	maxFileBytes int64
	maxFiles     int
}

// NewService creates an upload service. statusCache may be nil.
func NewService(pipeline *Pipeline, jobs JobAdmin, statusCache *cache.StatusCache, logger ectologger.Logger, maxFileBytes int64, maxFiles int) *Service {
	if maxFileBytes <= 0 {
		maxFileBytes = 10 << 20
	}
	if maxFiles < 1 {
		maxFiles = 5
	}
	return &Service{
		pipeline:     pipeline,
		jobs:         jobs,
		statusCache:  statusCache,
		logger:       logger,
		maxFileBytes: maxFileBytes,
		maxFiles:     maxFiles,
	}
}

// Upload validates the whole batch up front, then ingests file by file.
// Validation failures reject the entire request before any job is created;
// ingestion failures after that point are per-file and reported through each
// job's own status.
func (s *Service) Upload(ctx context.Context, files []*multipart.FileHeader) ([]models.ImportJob, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Service.Upload")
	defer span.End()

	if len(files) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "no files provided")
	}
	if len(files) > s.maxFiles {
		return nil, httperror.NewHTTPErrorf(http.StatusRequestEntityTooLarge, "too many files: limit is %d per upload", s.maxFiles)
	}

	seen := make(map[string]bool, len(files))
	for _, fh := range files {
		if seen[fh.Filename] {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "%s appears more than once in this upload", fh.Filename)
		}
		seen[fh.Filename] = true

		if err := s.validateFile(ctx, fh); err != nil {
			return nil, err
		}
	}

	jobs := make([]models.ImportJob, 0, len(files))
	for _, fh := range files {
		job, err := s.ingestFile(ctx, fh)
		if err != nil {
			// Job bookkeeping failed before the pipeline could own it.
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	s.statusCache.Invalidate(ctx)
	return jobs, nil
}

func (s *Service) validateFile(ctx context.Context, fh *multipart.FileHeader) error {
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "%s: only CSV files are accepted", fh.Filename)
	}
	if fh.Size > s.maxFileBytes {
		return httperror.NewHTTPErrorf(http.StatusRequestEntityTooLarge, "%s exceeds the %d byte file limit", fh.Filename, s.maxFileBytes)
	}

	exists, err := s.jobs.ExistsByFilename(ctx, fh.Filename)
	if err != nil {
		return err
	}
	if exists {
		return httperror.NewHTTPErrorf(http.StatusConflict, "%s has already been imported", fh.Filename)
	}
	return nil
}

func (s *Service) ingestFile(ctx context.Context, fh *multipart.FileHeader) (*models.ImportJob, error) {
	job, err := s.jobs.Create(ctx, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"filename": fh.Filename}).Error("Failed to open uploaded file")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read uploaded file")
	}
	defer f.Close()

	// Pipeline errors are already reflected in the job's Failed status; the
	// upload response reports them per job rather than failing the request.
	if _, err := s.pipeline.Ingest(ctx, f, job); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID, "filename": fh.Filename}).Error("Import failed")
	}
	return job, nil
}

// Job returns one import job by ID.
func (s *Service) Job(ctx context.Context, id string) (*models.ImportJob, error) {
	return s.jobs.Get(ctx, id)
}

// RecentJobs returns the most recent import jobs.
func (s *Service) RecentJobs(ctx context.Context, limit int) ([]models.ImportJob, error) {
	return s.jobs.Recent(ctx, limit)
}
