package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/service"
)

// Tickets is the ticket service as seen by the handler.
type Tickets interface {
	ListMine(ctx context.Context, caller service.Caller) ([]model.Ticket, error)
	Claim(ctx context.Context, caller service.Caller, ref string) (model.Ticket, error)
}

// TicketHandler serves the buyer's tickets.
type TicketHandler struct {
	Svc Tickets
	errorRenderer
}

func NewTicketHandler(svc Tickets, debug bool) *TicketHandler {
	if svc == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Svc: svc, errorRenderer: errorRenderer{Debug: debug}}
}

type claimReq struct {
	Ref string `json:"ref"`
}

// Mine handles GET /v1/my-tickets.
func (h *TicketHandler) Mine(c echo.Context) error {
	items, err := h.Svc.ListMine(c.Request().Context(), callerFrom(c))
	if err != nil {
		return h.render(c, "tickets", err)
	}
	if items == nil {
		items = []model.Ticket{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Claim handles POST /v1/tickets/claim {"ref": payment or checkout id}.
func (h *TicketHandler) Claim(c echo.Context) error {
	var req claimReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Svc.Claim(c.Request().Context(), callerFrom(c), strings.TrimSpace(req.Ref))
	if err != nil {
		return h.render(c, "tickets", err)
	}
	return c.JSON(http.StatusOK, t)
}
