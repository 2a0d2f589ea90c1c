package search

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Sanction-Guard/sanctionguard/pkg/models"
	"github.com/Sanction-Guard/sanctionguard/pkg/screening"
	"github.com/Sanction-Guard/sanctionguard/pkg/utils"
)

// Register registers search routes
func Register(g *echo.Group) {
	g.POST("/search", Search)
	g.GET("/search/status", Status)
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// Search screens a name against the indexed lists
func Search(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.SearchRequest](c)
	if err != nil {
		return err
	}

	ctx, engine, err := ectoinject.GetContext[*screening.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "search service unavailable")
	}

	results, err := engine.Search(ctx, req.SearchTerm, models.ParseRecordKind(req.SearchType))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Results: results,
		Total:   len(results),
	})
}

// Status reports the record count and data freshness
func Status(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, svc, err := ectoinject.GetContext[*screening.StatusService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "search service unavailable")
	}

	status, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, status)
}
