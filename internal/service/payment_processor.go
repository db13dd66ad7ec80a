package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/mailer"
	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/queue"
	"github.com/iliyamo/stagelink/internal/repository"
)

// PaymentStore reads and transitions payments.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (model.Payment, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (model.Payment, error)
	MarkPaid(ctx context.Context, id string, u model.PaidUpdate) error
}

// TicketStore issues and reads tickets.
type TicketStore interface {
	CountByPayment(ctx context.Context, paymentID string) (int, error)
	Create(ctx context.Context, t model.Ticket) error
	GetByPayment(ctx context.Context, paymentID string) (model.Ticket, error)
	ListByUser(ctx context.Context, profileID string) ([]model.Ticket, error)
	AssignOwner(ctx context.Context, ticketID, profileID string) error
}

// ShowStore reads shows.
type ShowStore interface {
	GetByID(ctx context.Context, id string) (model.Show, error)
}

// WebhookEventStore records the outcome of processed provider events.
type WebhookEventStore interface {
	Record(ctx context.Context, provider, eventID, eventType, paymentID string, procErr error) error
}

var (
	// ErrUnresolvedPayment means the event matched no payment row.
	ErrUnresolvedPayment = errors.New("payment not found for event")
	// ErrMissingShow means neither the event nor the payment names a show.
	ErrMissingShow = errors.New("no show id for payment")
)

// PaymentProcessor issues the ticket for a paid checkout.  It is safe to
// run more than once for the same event: a payment that already has a
// ticket is left alone.
type PaymentProcessor struct {
	Payments      PaymentStore
	Tickets       TicketStore
	Profiles      ProfileStore
	Shows         ShowStore
	Notifications NotificationStore
	Events        WebhookEventStore // optional
	Mail          Mailer            // optional
	SiteURL       string
}

// Process handles one verified paid-checkout event.  Only resolving the
// payment, marking it paid and inserting the ticket can fail the call;
// email and notifications are best effort.
func (p *PaymentProcessor) Process(ctx context.Context, ev queue.PaymentPaidEvent) error {
	payment, err := p.process(ctx, ev)
	p.record(ctx, ev, payment.ID, err)
	return err
}

func (p *PaymentProcessor) process(ctx context.Context, ev queue.PaymentPaidEvent) (model.Payment, error) {
	payment, err := p.resolvePayment(ctx, ev)
	if err != nil {
		log.Printf("payment-worker: event %s: %v", ev.EventID, err)
		return model.Payment{}, err
	}

	n, err := p.Tickets.CountByPayment(ctx, payment.ID)
	if err != nil {
		return payment, fmt.Errorf("count tickets: %w", err)
	}
	if n > 0 {
		log.Printf("payment-worker: payment %s already has %d ticket(s); skipping", payment.ID, n)
		return payment, nil
	}

	showID := firstNonEmpty(ev.ShowID, deref(payment.ShowID))
	if showID == "" {
		return payment, ErrMissingShow
	}

	email := firstNonEmpty(ev.CustomerEmail, payment.CustomerEmail)
	name := firstNonEmpty(ev.CustomerName, payment.CustomerName)
	if err := p.Payments.MarkPaid(ctx, payment.ID, model.PaidUpdate{
		CustomerEmail:      ev.CustomerEmail,
		CustomerName:       ev.CustomerName,
		PaymongoPaymentID:  ev.PaymongoPaymentID,
		PaymongoCheckoutID: ev.CheckoutID,
	}); err != nil {
		return payment, fmt.Errorf("mark payment %s paid: %w", payment.ID, err)
	}

	buyer := p.resolveBuyer(ctx, ev.UserID, deref(payment.UserID))

	ticket := model.Ticket{
		ID:            uuid.NewString(),
		ShowID:        showID,
		Status:        model.TicketConfirmed,
		PaymentID:     payment.ID,
		CustomerEmail: email,
		CustomerName:  name,
		AccessCode:    strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
	}
	if buyer != nil {
		ticket.UserID = &buyer.ID
	}
	if err := p.Tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Printf("payment-worker: ticket for payment %s issued concurrently; skipping", payment.ID)
			return payment, nil
		}
		return payment, fmt.Errorf("insert ticket: %w", err)
	}
	log.Printf("payment-worker: issued ticket %s for payment %s", ticket.ID, payment.ID)

	show, showErr := p.Shows.GetByID(ctx, showID)
	if showErr != nil {
		log.Printf("payment-worker: show %s lookup failed: %v", showID, showErr)
	}

	if email != "" && p.Mail != nil && p.Mail.Enabled() {
		_ = BestEffort(ctx, "ticket confirmation email", func(ctx context.Context) error {
			msg, err := mailer.TicketConfirmationMessage(email, mailer.TicketConfirmation{
				CustomerName: name,
				ShowTitle:    firstNonEmpty(show.Title, "your show"),
				ShowDate:     show.Date,
				Venue:        show.Venue,
				ShowURL:      p.SiteURL + "/show/" + showID,
				Reference:    payment.ID,
			})
			if err != nil {
				return err
			}
			return p.Mail.Send(ctx, msg)
		})
	}

	if showErr == nil && show.ProducerID != "" {
		_ = BestEffort(ctx, "producer ticket notification", func(ctx context.Context) error {
			return p.Notifications.Create(ctx, model.Notification{
				UserID:  show.ProducerID,
				ActorID: ticket.UserID,
				Type:    model.NotifyTicketSold,
				Title:   "Ticket Sold",
				Message: "A seat has been secured for " + show.Title + ".",
				Link:    "/dashboard",
			})
		})
	}
	if buyer != nil {
		title := firstNonEmpty(show.Title, "your show")
		_ = BestEffort(ctx, "buyer ticket notification", func(ctx context.Context) error {
			return p.Notifications.Create(ctx, model.Notification{
				UserID:  buyer.ID,
				Type:    model.NotifyTicketPurchased,
				Title:   "Ticket Confirmed",
				Message: "Your ticket for " + title + " is confirmed.",
				Link:    "/my-tickets",
			})
		})
	}
	return payment, nil
}

// resolvePayment finds the payment by the internal id in metadata, then by
// checkout session id.
func (p *PaymentProcessor) resolvePayment(ctx context.Context, ev queue.PaymentPaidEvent) (model.Payment, error) {
	if ev.PaymentID != "" {
		pay, err := p.Payments.GetByID(ctx, ev.PaymentID)
		if err == nil {
			return pay, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.Payment{}, fmt.Errorf("load payment %s: %w", ev.PaymentID, err)
		}
	}
	if ev.CheckoutID != "" {
		pay, err := p.Payments.GetByCheckoutID(ctx, ev.CheckoutID)
		if err == nil {
			return pay, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.Payment{}, fmt.Errorf("load payment by checkout %s: %w", ev.CheckoutID, err)
		}
	}
	return model.Payment{}, ErrUnresolvedPayment
}

// resolveBuyer returns the profile of the first account id that has one.
// Nil means the ticket is issued to a guest.
func (p *PaymentProcessor) resolveBuyer(ctx context.Context, accountIDs ...string) *model.Profile {
	for _, id := range accountIDs {
		if id == "" {
			continue
		}
		prof, err := p.Profiles.GetByUserID(ctx, id)
		if err == nil {
			return &prof
		}
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("payment-worker: buyer profile lookup for %s failed: %v", id, err)
		}
	}
	return nil
}

func (p *PaymentProcessor) record(ctx context.Context, ev queue.PaymentPaidEvent, paymentID string, procErr error) {
	if p.Events == nil || ev.EventID == "" {
		return
	}
	_ = BestEffort(ctx, "record webhook event", func(ctx context.Context) error {
		return p.Events.Record(ctx, "paymongo", ev.EventID, "checkout_session.payment.paid", paymentID, procErr)
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
