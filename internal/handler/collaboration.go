package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/service"
)

// Collaborations is the collaboration service as seen by the handler.
type Collaborations interface {
	Propose(ctx context.Context, caller service.Caller, recipientProfileID string) (service.ProposalResult, error)
	ListIncoming(ctx context.Context, caller service.Caller) ([]model.CollaborationRequest, error)
	Respond(ctx context.Context, caller service.Caller, requestID string, accept bool) (model.CollaborationRequest, error)
}

// CollaborationHandler serves collaboration proposals and their answers.
type CollaborationHandler struct {
	Svc Collaborations
	errorRenderer
}

// NewCollaborationHandler panics when svc is nil.  debug enables driver
// details in 500 responses.
func NewCollaborationHandler(svc Collaborations, debug bool) *CollaborationHandler {
	if svc == nil {
		panic("nil service passed to NewCollaborationHandler")
	}
	return &CollaborationHandler{Svc: svc, errorRenderer: errorRenderer{Debug: debug}}
}

type proposalReq struct {
	RecipientProfileID string `json:"recipient_profile_id"`
}

// proposalResp is the 200 body.  EmailSent is omitted when no delivery was
// attempted.
type proposalResp struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent *bool  `json:"emailSent,omitempty"`
}

// MethodNotAllowed answers non-POST requests to the proposal route before
// any authentication runs.
func MethodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "Method not allowed"})
}

// Propose handles POST /v1/collaborations/proposals.
func (h *CollaborationHandler) Propose(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	req, err := decodeProposal(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	res, err := h.Svc.Propose(c.Request().Context(), callerFrom(c), req.RecipientProfileID)
	if err != nil {
		return h.render(c, "collab", err)
	}
	return c.JSON(http.StatusOK, proposalResp{Success: true, Message: res.Message, EmailSent: res.EmailSent})
}

// decodeProposal accepts the body either as a JSON object or as a JSON
// string holding the object, which is what some clients send.  An empty
// body decodes to an empty request.
func decodeProposal(raw []byte) (proposalReq, error) {
	var req proposalReq
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return req, nil
	}
	if strings.HasPrefix(body, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(body), &inner); err != nil {
			return req, err
		}
		body = strings.TrimSpace(inner)
		if body == "" {
			return req, nil
		}
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return req, err
	}
	return req, nil
}

// Incoming lists pending requests addressed to the caller.
func (h *CollaborationHandler) Incoming(c echo.Context) error {
	reqs, err := h.Svc.ListIncoming(c.Request().Context(), callerFrom(c))
	if err != nil {
		return h.render(c, "collab", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reqs})
}

// Accept handles POST /v1/collaborations/:id/accept.
func (h *CollaborationHandler) Accept(c echo.Context) error { return h.respond(c, true) }

// Reject handles POST /v1/collaborations/:id/reject.
func (h *CollaborationHandler) Reject(c echo.Context) error { return h.respond(c, false) }

func (h *CollaborationHandler) respond(c echo.Context, accept bool) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	req, err := h.Svc.Respond(c.Request().Context(), callerFrom(c), id, accept)
	if err != nil {
		return h.render(c, "collab", err)
	}
	return c.JSON(http.StatusOK, req)
}
