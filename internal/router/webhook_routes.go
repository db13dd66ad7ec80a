package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stagelink/internal/handler"
)

// RegisterWebhooks registers the PayMongo webhook.  The provider signs the
// raw body, so nothing in front of the handler may consume or rewrite it.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
	limit := echomw.BodyLimit("1M")
	e.POST("/v1/webhooks/paymongo", w.PayMongo, limit)
	e.POST("/functions/v1/paymongo-webhook", w.PayMongo, limit)
}
