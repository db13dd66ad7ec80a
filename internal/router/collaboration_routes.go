package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/handler"
	"github.com/iliyamo/stagelink/internal/middleware"
)

// proposalPaths are the canonical proposal route and the path older
// clients post to.
var proposalPaths = []string{"/v1/collaborations/proposals", "/api/send-collab-proposal"}

// notPost lists the methods answered with 405 on the proposal routes.
var notPost = []string{
	http.MethodGet, http.MethodHead, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// RegisterCollaboration registers the proposal endpoint and the receiver's
// inbox.  Wrong methods on the proposal paths are rejected before
// authentication; POSTs pass JWTAuth, the role gate and then limit.
func RegisterCollaboration(e *echo.Echo, h *handler.CollaborationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	authn := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(allRoles...),
	}
	for _, p := range proposalPaths {
		e.Match(notPost, p, handler.MethodNotAllowed)
		e.POST(p, h.Propose, append(authn, limit)...)
	}

	g := e.Group("/v1/collaborations", authn...)
	g.GET("/incoming", h.Incoming)
	g.POST("/:id/accept", h.Accept)
	g.POST("/:id/reject", h.Reject)
}
