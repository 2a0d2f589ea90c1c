package importjob

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Sanction-Guard/sanctionguard/pkg/database"
	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
)

var columns = []string{
	"id", "filename", "file_type", "file_size", "status",
	"entries_updated", "error_message", "created_at", "updated_at",
}

// Repository handles import job persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new import job repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records a newly accepted upload in the pending state.
func (r *Repository) Create(ctx context.Context, filename, fileType string, fileSize int64) (*models.ImportJob, error) {
	ctx, span := tracing.StartSpan(ctx, "importjob.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	job := models.ImportJob{
		ID:        uuid.New().String(),
		Filename:  filename,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    models.ImportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("import_jobs")
	sb.Cols("id", "filename", "file_type", "file_size", "status", "entries_updated", "created_at", "updated_at")
	sb.Values(job.ID, job.Filename, job.FileType, job.FileSize, job.Status, 0, job.CreatedAt, job.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"filename": filename}).Error("Failed to create import job")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create import job")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": job.ID, "filename": filename}).Info("Created import job")
	return &job, nil
}

// Get retrieves an import job by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	ctx, span := tracing.StartSpan(ctx, "importjob.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("import_jobs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var job models.ImportJob
	if err := r.db.GetContext(ctx, &job, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "import job %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get import job")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import job")
	}
	return &job, nil
}

// Recent returns the most recent import jobs, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.ImportJob, error) {
	ctx, span := tracing.StartSpan(ctx, "importjob.Repository.Recent")
	defer span.End()

	if limit < 1 || limit > 100 {
		limit = 20
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("import_jobs")
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var jobs []models.ImportJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"limit": limit}).Error("Failed to list recent import jobs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import jobs")
	}
	return jobs, nil
}

// ExistsByFilename reports whether an import job already exists for the given
// filename. Uploads are rejected when a prior job claimed the same name.
func (r *Repository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "importjob.Repository.ExistsByFilename")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("import_jobs")
	sb.Where(sb.Equal("filename", filename))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"filename": filename}).Error("Failed to check import job filename")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check import job filename")
	}
	return count > 0, nil
}

// MarkProcessing transitions a pending job to processing.
func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	return r.transition(ctx, id, models.ImportStatusProcessing, 0, nil)
}

// MarkCompleted transitions a job to completed with its final row count.
func (r *Repository) MarkCompleted(ctx context.Context, id string, entriesUpdated int) error {
	return r.transition(ctx, id, models.ImportStatusCompleted, entriesUpdated, nil)
}

// MarkFailed transitions a job to failed with the error that stopped it.
func (r *Repository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	return r.transition(ctx, id, models.ImportStatusFailed, 0, &errorMessage)
}

// transition applies a status change. The WHERE clause excludes terminal
// states so completed and failed jobs can never be mutated again.
func (r *Repository) transition(ctx context.Context, id string, status models.ImportStatus, entriesUpdated int, errorMessage *string) error {
	ctx, span := tracing.StartSpan(ctx, "importjob.Repository.transition")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("import_jobs")
	assignments := []string{
		sb.Assign("status", string(status)),
		sb.Assign("updated_at", now),
	}
	if status == models.ImportStatusCompleted {
		assignments = append(assignments, sb.Assign("entries_updated", entriesUpdated))
	}
	if errorMessage != nil {
		assignments = append(assignments, sb.Assign("error_message", *errorMessage))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.NotIn("status", string(models.ImportStatusCompleted), string(models.ImportStatusFailed)),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "status": status}).Error("Failed to update import job status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update import job")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusConflict, "import job %s is not in an updatable state", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "status": status}).Info("Updated import job status")
	return nil
}
