package service

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/stagelink/internal/apperr"
	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/queue"
	"github.com/iliyamo/stagelink/internal/repository"
)

// CheckoutFetcher reads a checkout session from the payment provider.
type CheckoutFetcher interface {
	PaidCheckout(ctx context.Context, checkoutID string) (queue.PaymentPaidEvent, error)
}

// TicketService lets buyers list their tickets and claim tickets bought
// while signed out.
//
// When a paid payment has no ticket, because the webhook never arrived or
// failed, Claim rebuilds the event from the provider's checkout session
// and runs Issue on it.  Both Checkouts and Issue are optional; without
// them such a claim is a 404.
type TicketService struct {
	Profiles  ProfileStore
	Payments  PaymentStore
	Tickets   TicketStore
	Checkouts CheckoutFetcher
	Issue     func(ctx context.Context, ev queue.PaymentPaidEvent) error
}

func (s *TicketService) profile(ctx context.Context, caller Caller) (model.Profile, error) {
	p, err := s.Profiles.GetByUserID(ctx, caller.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, apperr.NotFound("Profile not found")
		}
		return model.Profile{}, apperr.Internal("failed to load profile", err)
	}
	return p, nil
}

// ListMine returns the caller's tickets.
func (s *TicketService) ListMine(ctx context.Context, caller Caller) ([]model.Ticket, error) {
	p, err := s.profile(ctx, caller)
	if err != nil {
		return nil, err
	}
	ts, err := s.Tickets.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, apperr.Internal("failed to list tickets", err)
	}
	return ts, nil
}

// Claim attaches the guest ticket of a paid payment to the caller.  ref is
// the payment id or the checkout session id.  Claiming a ticket the caller
// already owns succeeds.
func (s *TicketService) Claim(ctx context.Context, caller Caller, ref string) (model.Ticket, error) {
	if ref == "" {
		return model.Ticket{}, apperr.InvalidArg("ref is required")
	}
	p, err := s.profile(ctx, caller)
	if err != nil {
		return model.Ticket{}, err
	}

	pay, err := s.Payments.GetByID(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		pay, err = s.Payments.GetByCheckoutID(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Ticket{}, apperr.NotFound("Payment not found")
		}
		return model.Ticket{}, apperr.Internal("failed to load payment", err)
	}
	if pay.Status != model.PaymentPaid {
		return model.Ticket{}, apperr.Conflict("Payment not completed")
	}

	t, err := s.Tickets.GetByPayment(ctx, pay.ID)
	if errors.Is(err, repository.ErrNotFound) {
		t, err = s.issueMissing(ctx, caller, pay)
	}
	if err != nil {
		var ae *apperr.AppError
		if errors.As(err, &ae) {
			return model.Ticket{}, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return model.Ticket{}, apperr.NotFound("Ticket not found")
		}
		return model.Ticket{}, apperr.Internal("failed to load ticket", err)
	}
	if t.UserID != nil {
		if *t.UserID == p.ID {
			return t, nil
		}
		return model.Ticket{}, apperr.Conflict("Ticket already claimed")
	}
	if err := s.Tickets.AssignOwner(ctx, t.ID, p.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Ticket{}, apperr.Conflict("Ticket already claimed")
		}
		return model.Ticket{}, apperr.Internal("failed to claim ticket", err)
	}
	owner := p.ID
	t.UserID = &owner
	return t, nil
}

// issueMissing issues the missing ticket of a paid payment from its checkout
// session.  The caller becomes the buyer.  It returns repository.ErrNotFound
// when recovery is not possible.
func (s *TicketService) issueMissing(ctx context.Context, caller Caller, pay model.Payment) (model.Ticket, error) {
	if s.Checkouts == nil || s.Issue == nil || pay.PaymongoCheckoutID == "" {
		return model.Ticket{}, repository.ErrNotFound
	}
	ev, err := s.Checkouts.PaidCheckout(ctx, pay.PaymongoCheckoutID)
	if err != nil {
		log.Printf("claim: fetch checkout %s failed: %v", pay.PaymongoCheckoutID, err)
		return model.Ticket{}, apperr.Wrap(apperr.CodeFailedPrecondition, "Could not load checkout session", err)
	}
	ev.PaymentID = pay.ID
	ev.UserID = caller.AccountID
	if err := s.Issue(ctx, ev); err != nil {
		if errors.Is(err, ErrMissingShow) {
			return model.Ticket{}, apperr.Wrap(apperr.CodeFailedPrecondition, "Checkout session has no show", err)
		}
		return model.Ticket{}, apperr.Internal("failed to issue ticket", err)
	}
	log.Printf("claim: issued missing ticket for payment %s", pay.ID)
	return s.Tickets.GetByPayment(ctx, pay.ID)
}
