package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/paymongo"
	"github.com/iliyamo/stagelink/internal/queue"
)

// PaymentDispatcher hands a verified paid-checkout event to the worker.
// It must not block on processing.
type PaymentDispatcher interface {
	Dispatch(ctx context.Context, ev queue.PaymentPaidEvent)
}

// WebhookHandler receives PayMongo webhooks.
type WebhookHandler struct {
	Verifier   *paymongo.Verifier
	Dispatcher PaymentDispatcher
}

func NewWebhookHandler(v *paymongo.Verifier, d PaymentDispatcher) *WebhookHandler {
	if v == nil || d == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Verifier: v, Dispatcher: d}
}

// PayMongo acknowledges a verified checkout_session.payment.paid event as
// soon as it is handed off; ticket issuance runs after the response.  The
// provider only ever learns whether its delivery was accepted.
func (h *WebhookHandler) PayMongo(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	if err := h.Verifier.Verify(c.Request().Header.Get(paymongo.SignatureHeader), body); err != nil {
		if errors.Is(err, paymongo.ErrMissingSecret) {
			log.Printf("paymongo-webhook: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook secret not configured"})
		}
		log.Printf("paymongo-webhook: rejected: %v", err)
		if errors.Is(err, paymongo.ErrMissingHeader) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing signature"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid signature"})
	}

	ev, err := paymongo.ParseEvent(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON payload"})
	}
	if ev.Type() != paymongo.EventCheckoutPaid {
		return c.JSON(http.StatusOK, echo.Map{"message": "Event ignored"})
	}

	h.Dispatcher.Dispatch(c.Request().Context(), ev.PaidCheckout())
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
