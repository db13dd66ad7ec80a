package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/handler"
	"github.com/iliyamo/stagelink/internal/middleware"
)

// RegisterMember registers the signed-in member's own resources under /v1:
// tickets and in-app notifications.  Every role may use them.
func RegisterMember(e *echo.Echo, t *handler.TicketHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(allRoles...),
	)
	g.GET("/my-tickets", t.Mine)
	g.POST("/tickets/claim", t.Claim)

	g.GET("/notifications", n.List)
	g.POST("/notifications/:id/read", n.MarkRead)
}
