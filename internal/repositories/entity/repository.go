package entity

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
	"id", "reference_number", "name", "aliases",
	"address_lines", "address_streets", "address_cities", "address_countries",
	"source", "source_file", "import_job_id", "list_type", "is_active", "created_at", "updated_at",
}

// Repository handles sanctioned entity persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new entity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the result of an upsert operation
type UpsertResult struct {
	Entity *models.Entity
	IsNew  bool
}

// Upsert creates or updates an entity keyed on (reference_number, list_type).
func (r *Repository) Upsert(ctx context.Context, ent models.Entity) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO entities (
			id, reference_number, name, aliases,
			address_lines, address_streets, address_cities, address_countries,
			source, source_file, import_job_id, list_type, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (reference_number, list_type)
		DO UPDATE SET
			name = EXCLUDED.name,
			aliases = EXCLUDED.aliases,
			address_lines = EXCLUDED.address_lines,
			address_streets = EXCLUDED.address_streets,
			address_cities = EXCLUDED.address_cities,
			address_countries = EXCLUDED.address_countries,
			source = EXCLUDED.source,
			source_file = EXCLUDED.source_file,
			import_job_id = EXCLUDED.import_job_id,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING
			id, reference_number, name, aliases,
			address_lines, address_streets, address_cities, address_countries,
			source, source_file, import_job_id, list_type, is_active, created_at, updated_at,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.Entity
		Inserted bool `db:"inserted"`
	}

	err := r.db.GetContext(ctx, &result, query,
		id, ent.ReferenceNumber, ent.Name, ent.Aliases,
		ent.AddressLines, ent.AddressStreets, ent.AddressCities, ent.AddressCountries,
		ent.Source, ent.SourceFile, ent.ImportJobID, ent.ListType, true, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"reference_number": ent.ReferenceNumber, "list_type": ent.ListType}).Error("Failed to upsert entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert entity")
	}

	if result.Inserted {
		r.logger.WithContext(ctx).WithFields(map[string]any{"id": result.ID, "reference_number": result.ReferenceNumber}).Debug("Created entity")
	}
	return &UpsertResult{Entity: &result.Entity, IsNew: result.Inserted}, nil
}

// Get retrieves an entity by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Entity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("entities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var ent models.Entity
	if err := r.db.GetContext(ctx, &ent, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "entity %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get entity")
	}
	return &ent, nil
}

// GetByReference retrieves an entity by (reference_number, list_type).
// Returns nil when no record matches.
func (r *Repository) GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Entity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.GetByReference")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("entities")
	sb.Where(
		sb.Equal("reference_number", referenceNumber),
		sb.Equal("list_type", string(listType)),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var ent models.Entity
	if err := r.db.GetContext(ctx, &ent, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"reference_number": referenceNumber, "list_type": listType}).Error("Failed to get entity by reference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get entity")
	}
	return &ent, nil
}

// List retrieves entities with pagination, newest first.
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.EntityListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("entities")
	countSb.Where(countSb.Equal("is_active", true))

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count entities")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("entities")
	sb.Where(sb.Equal("is_active", true))
	sb.OrderBy("updated_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var entities []models.Entity
	if err := r.db.SelectContext(ctx, &entities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"page": page, "page_size": pageSize}).Error("Failed to list entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entities")
	}

	return &models.EntityListResponse{
		Items:      entities,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Count returns the number of active entities.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("entities")
	sb.Where(sb.Equal("is_active", true))

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count entities")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count entities")
	}
	return count, nil
}

// LastUpdated returns the most recent updated_at across all entities, or nil
// when the table is empty.
func (r *Repository) LastUpdated(ctx context.Context) (*time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.LastUpdated")
	defer span.End()

	query := `SELECT MAX(updated_at) FROM entities`
	var last *time.Time
	if err := r.db.GetContext(ctx, &last, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get last updated time for entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get last updated time")
	}
	return last, nil
}
