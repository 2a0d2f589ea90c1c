package individual

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
	"id", "reference_number", "first_name", "second_name", "third_name", "full_name",
	"aliases", "date_of_birth", "national_id",
	"nationalities", "birth_cities", "birth_countries", "address_cities", "address_countries",
	"doc_types", "doc_numbers", "doc_issuing_countries",
	"source", "source_file", "import_job_id", "list_type", "is_active", "created_at", "updated_at",
}

// Repository handles sanctioned individual persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new individual repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the result of an upsert operation
type UpsertResult struct {
	Individual *models.Individual
	IsNew      bool
}

// Upsert creates or updates an individual keyed on (reference_number, list_type).
// Re-imports replace the record's data in place; created_at survives updates so
// the record keeps its original first-seen time.
func (r *Repository) Upsert(ctx context.Context, ind models.Individual) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO individuals (
			id, reference_number, first_name, second_name, third_name, full_name,
			aliases, date_of_birth, national_id,
			nationalities, birth_cities, birth_countries, address_cities, address_countries,
			doc_types, doc_numbers, doc_issuing_countries,
			source, source_file, import_job_id, list_type, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (reference_number, list_type)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			second_name = EXCLUDED.second_name,
			third_name = EXCLUDED.third_name,
			full_name = EXCLUDED.full_name,
			aliases = EXCLUDED.aliases,
			date_of_birth = EXCLUDED.date_of_birth,
			national_id = EXCLUDED.national_id,
			nationalities = EXCLUDED.nationalities,
			birth_cities = EXCLUDED.birth_cities,
			birth_countries = EXCLUDED.birth_countries,
			address_cities = EXCLUDED.address_cities,
			address_countries = EXCLUDED.address_countries,
			doc_types = EXCLUDED.doc_types,
			doc_numbers = EXCLUDED.doc_numbers,
			doc_issuing_countries = EXCLUDED.doc_issuing_countries,
			source = EXCLUDED.source,
			source_file = EXCLUDED.source_file,
			import_job_id = EXCLUDED.import_job_id,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING
			id, reference_number, first_name, second_name, third_name, full_name,
			aliases, date_of_birth, national_id,
			nationalities, birth_cities, birth_countries, address_cities, address_countries,
			doc_types, doc_numbers, doc_issuing_countries,
			source, source_file, import_job_id, list_type, is_active, created_at, updated_at,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.Individual
		Inserted bool `db:"inserted"`
	}

	err := r.db.GetContext(ctx, &result, query,
		id, ind.ReferenceNumber, ind.FirstName, ind.SecondName, ind.ThirdName, ind.FullName,
		ind.Aliases, ind.DateOfBirth, ind.NationalID,
		ind.Nationalities, ind.BirthCities, ind.BirthCountries, ind.AddressCities, ind.AddressCountries,
		ind.DocTypes, ind.DocNumbers, ind.DocIssuingCountries,
		ind.Source, ind.SourceFile, ind.ImportJobID, ind.ListType, true, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"reference_number": ind.ReferenceNumber, "list_type": ind.ListType}).Error("Failed to upsert individual")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert individual")
	}

	if result.Inserted {
		r.logger.WithContext(ctx).WithFields(map[string]any{"id": result.ID, "reference_number": result.ReferenceNumber}).Debug("Created individual")
	}
	return &UpsertResult{Individual: &result.Individual, IsNew: result.Inserted}, nil
}

// Get retrieves an individual by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Individual, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("individuals")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var ind models.Individual
	if err := r.db.GetContext(ctx, &ind, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "individual %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get individual")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get individual")
	}
	return &ind, nil
}

// GetByReference retrieves an individual by (reference_number, list_type).
// Returns nil when no record matches.
func (r *Repository) GetByReference(ctx context.Context, referenceNumber string, listType models.ListType) (*models.Individual, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.GetByReference")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("individuals")
	sb.Where(
		sb.Equal("reference_number", referenceNumber),
		sb.Equal("list_type", string(listType)),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var ind models.Individual
	if err := r.db.GetContext(ctx, &ind, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"reference_number": referenceNumber, "list_type": listType}).Error("Failed to get individual by reference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get individual")
	}
	return &ind, nil
}

// List retrieves individuals with pagination, newest first.
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.IndividualListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.List")
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
	countSb.From("individuals")
	countSb.Where(countSb.Equal("is_active", true))

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count individuals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count individuals")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("individuals")
	sb.Where(sb.Equal("is_active", true))
	sb.OrderBy("updated_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var individuals []models.Individual
	if err := r.db.SelectContext(ctx, &individuals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"page": page, "page_size": pageSize}).Error("Failed to list individuals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list individuals")
	}

	return &models.IndividualListResponse{
		Items:      individuals,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Count returns the number of active individuals.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("individuals")
	sb.Where(sb.Equal("is_active", true))

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count individuals")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count individuals")
	}
	return count, nil
}

// LastUpdated returns the most recent updated_at across all individuals, or
// nil when the table is empty.
func (r *Repository) LastUpdated(ctx context.Context) (*time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "individual.Repository.LastUpdated")
	defer span.End()

	query := `SELECT MAX(updated_at) FROM individuals`
	var last *time.Time
	if err := r.db.GetContext(ctx, &last, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get last updated time for individuals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get last updated time")
	}
	return last, nil
}
