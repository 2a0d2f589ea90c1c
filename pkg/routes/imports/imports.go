package imports

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Sanction-Guard/sanctionguard/pkg/ingest"
)

// Register registers import routes
func Register(g *echo.Group) {
	g.POST("/imports/upload", Upload)
	g.GET("/imports/recent", Recent)
	g.GET("/imports/:id", Get)
}

// Upload accepts one or more CSV files and imports them
func Upload(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.MultipartForm()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "request must be multipart form data")
	}
	files := form.File["files"]

	ctx, svc, err := ectoinject.GetContext[*ingest.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service unavailable")
	}

	jobs, err := svc.Upload(ctx, files)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"jobs": jobs})
}

// Recent lists the most recent import jobs
func Recent(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	ctx, svc, err := ectoinject.GetContext[*ingest.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service unavailable")
	}

	jobs, err := svc.RecentJobs(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"jobs": jobs})
}

// Get returns one import job by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*ingest.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service unavailable")
	}

	job, err := svc.Job(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, job)
}
