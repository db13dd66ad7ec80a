package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/repository"
)

// ShowBrowser reads approved shows for the public catalogue.
type ShowBrowser interface {
	GetByID(ctx context.Context, id string) (model.Show, error)
	SearchUpcoming(ctx context.Context, q repository.ShowSearchQuery) ([]model.Show, int64, error)
}

// PublicHandler serves unauthenticated browse routes.  Responses are
// cached by the Redis cache middleware, so they must not depend on the
// caller.
type PublicHandler struct {
	Shows ShowBrowser
}

func NewPublicHandler(shows ShowBrowser) *PublicHandler {
	if shows == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Shows: shows}
}

// SearchShows handles GET /v1/shows.
// time: "upcoming" (default) or "any" (includes past and undated shows)
func (h *PublicHandler) SearchShows(c echo.Context) error {
	timeFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("time")))
	if timeFilter == "" {
		timeFilter = "upcoming"
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.ShowSearchQuery{
		Title:      strings.TrimSpace(c.QueryParam("title")),
		Venue:      strings.TrimSpace(c.QueryParam("venue")),
		TimeFilter: timeFilter,
		Page:       page,
		PageSize:   ps,
	}

	items, total, err := h.Shows.SearchUpcoming(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.Show{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// GetShow handles GET /v1/shows/:id.  Unapproved shows are reported as
// missing.
func (h *PublicHandler) GetShow(c echo.Context) error {
	s, err := h.Shows.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if s.Status != repository.ShowApproved {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	return c.JSON(http.StatusOK, s)
}
