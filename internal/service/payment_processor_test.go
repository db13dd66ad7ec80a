package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/queue"
	"github.com/iliyamo/stagelink/internal/repository"
)

type fakePayments struct {
	mu      sync.Mutex
	rows    map[string]model.Payment
	paid    []string
	paidErr error
}

func (f *fakePayments) GetByID(_ context.Context, id string) (model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return model.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) GetByCheckoutID(_ context.Context, checkoutID string) (model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.PaymongoCheckoutID == checkoutID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrNotFound
}

func (f *fakePayments) MarkPaid(_ context.Context, id string, u model.PaidUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paidErr != nil {
		return f.paidErr
	}
	p := f.rows[id]
	p.Status = model.PaymentPaid
	if u.CustomerEmail != "" {
		p.CustomerEmail = u.CustomerEmail
	}
	if u.CustomerName != "" {
		p.CustomerName = u.CustomerName
	}
	if u.PaymongoCheckoutID != "" {
		p.PaymongoCheckoutID = u.PaymongoCheckoutID
	}
	f.rows[id] = p
	f.paid = append(f.paid, id)
	return nil
}

type fakeTickets struct {
	mu        sync.Mutex
	rows      []model.Ticket
	creates   int
	createErr error
}

func (f *fakeTickets) CountByPayment(_ context.Context, paymentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.rows {
		if t.PaymentID == paymentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTickets) Create(_ context.Context, t model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.rows {
		if r.PaymentID == t.PaymentID {
			return repository.ErrDuplicate
		}
	}
	f.rows = append(f.rows, t)
	return nil
}

func (f *fakeTickets) GetByPayment(_ context.Context, paymentID string) (model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.PaymentID == paymentID {
			return t, nil
		}
	}
	return model.Ticket{}, repository.ErrNotFound
}

func (f *fakeTickets) ListByUser(_ context.Context, profileID string) ([]model.Ticket, error) {
	out := []model.Ticket{}
	for _, t := range f.rows {
		if t.UserID != nil && *t.UserID == profileID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTickets) AssignOwner(_ context.Context, ticketID, profileID string) error {
	for i := range f.rows {
		if f.rows[i].ID == ticketID {
			if f.rows[i].UserID != nil {
				return repository.ErrConflict
			}
			owner := profileID
			f.rows[i].UserID = &owner
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeShows map[string]model.Show

func (f fakeShows) GetByID(_ context.Context, id string) (model.Show, error) {
	s, ok := f[id]
	if !ok {
		return model.Show{}, repository.ErrNotFound
	}
	return s, nil
}

type recordedEvent struct {
	eventID   string
	paymentID string
	err       error
}

type fakeEvents struct {
	rows []recordedEvent
}

func (f *fakeEvents) Record(_ context.Context, _, eventID, _ string, paymentID string, procErr error) error {
	f.rows = append(f.rows, recordedEvent{eventID, paymentID, procErr})
	return nil
}

const (
	showS     = "5e5e5e5e-1111-4222-8333-444455556666"
	producerP = "9d9d9d9d-1111-4222-8333-444455556666"
)

type paymentFixture struct {
	proc     *PaymentProcessor
	payments *fakePayments
	tickets  *fakeTickets
	notes    *fakeNotifications
	mail     *fakeMailer
	events   *fakeEvents
	buyer    model.Profile
}

func newPaymentFixture() *paymentFixture {
	date := time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC)
	buyer := model.Profile{ID: profB, UserID: acctB, Role: model.RoleAudience}
	f := &paymentFixture{
		payments: &fakePayments{rows: map[string]model.Payment{
			"pay-1": {ID: "pay-1", Status: model.PaymentPending, PaymongoCheckoutID: "cs_1"},
		}},
		tickets: &fakeTickets{},
		notes:   &fakeNotifications{},
		mail:    &fakeMailer{enabled: true},
		events:  &fakeEvents{},
		buyer:   buyer,
	}
	f.proc = &PaymentProcessor{
		Payments:      f.payments,
		Tickets:       f.tickets,
		Profiles:      newFakeProfiles(buyer),
		Shows:         fakeShows{showS: {ID: showS, ProducerID: producerP, Title: "Rent", Venue: "CCP", Date: &date}},
		Notifications: f.notes,
		Events:        f.events,
		Mail:          f.mail,
		SiteURL:       "https://www.stagelink.show",
	}
	return f
}

func paidEvent() queue.PaymentPaidEvent {
	return queue.PaymentPaidEvent{
		EventID:       "evt_1",
		CheckoutID:    "cs_1",
		PaymentID:     "pay-1",
		ShowID:        showS,
		UserID:        acctB,
		CustomerEmail: "a@b.com",
		CustomerName:  "A B",
	}
}

func TestProcess_IssuesTicketAndNotifies(t *testing.T) {
	f := newPaymentFixture()

	require.NoError(t, f.proc.Process(context.Background(), paidEvent()))

	assert.Equal(t, model.PaymentPaid, f.payments.rows["pay-1"].Status)
	assert.Equal(t, "a@b.com", f.payments.rows["pay-1"].CustomerEmail)
	require.Len(t, f.tickets.rows, 1)
	tk := f.tickets.rows[0]
	assert.Equal(t, showS, tk.ShowID)
	assert.Equal(t, "pay-1", tk.PaymentID)
	require.NotNil(t, tk.UserID)
	assert.Equal(t, profB, *tk.UserID)
	assert.Equal(t, model.TicketConfirmed, tk.Status)
	assert.NotEmpty(t, tk.AccessCode)

	require.Len(t, f.notes.rows, 2)
	assert.Equal(t, producerP, f.notes.rows[0].UserID)
	assert.Equal(t, model.NotifyTicketSold, f.notes.rows[0].Type)
	assert.Equal(t, "A seat has been secured for Rent.", f.notes.rows[0].Message)
	assert.Equal(t, profB, f.notes.rows[1].UserID)
	assert.Equal(t, model.NotifyTicketPurchased, f.notes.rows[1].Type)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "Ticket Confirmed: Rent", f.mail.sent[0].Subject)
	assert.Equal(t, []string{"a@b.com"}, f.mail.sent[0].To)

	require.Len(t, f.events.rows, 1)
	assert.Equal(t, "pay-1", f.events.rows[0].paymentID)
	assert.NoError(t, f.events.rows[0].err)
}

func TestProcess_ReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture()
	ev := paidEvent()

	require.NoError(t, f.proc.Process(context.Background(), ev))
	require.NoError(t, f.proc.Process(context.Background(), ev))

	assert.Len(t, f.tickets.rows, 1)
	assert.Equal(t, 1, f.tickets.creates)
	assert.Equal(t, []string{"pay-1"}, f.payments.paid, "second delivery must not touch the payment")
	assert.Len(t, f.notes.rows, 2)
	assert.Len(t, f.mail.sent, 1)
}

func TestProcess_GuestTicket(t *testing.T) {
	f := newPaymentFixture()
	ev := paidEvent()
	ev.UserID = ""

	require.NoError(t, f.proc.Process(context.Background(), ev))
	require.Len(t, f.tickets.rows, 1)
	tk := f.tickets.rows[0]
	assert.Nil(t, tk.UserID)
	assert.Equal(t, "a@b.com", tk.CustomerEmail)
	assert.Equal(t, "A B", tk.CustomerName)
	require.Len(t, f.notes.rows, 1, "only the producer is notified")
	assert.Equal(t, producerP, f.notes.rows[0].UserID)
}

func TestProcess_BuyerFallsBackToPaymentAccount(t *testing.T) {
	f := newPaymentFixture()
	p := f.payments.rows["pay-1"]
	acct := acctB
	p.UserID = &acct
	f.payments.rows["pay-1"] = p
	ev := paidEvent()
	ev.UserID = "ffffffff-1111-4222-8333-444455556666"

	require.NoError(t, f.proc.Process(context.Background(), ev))
	require.NotNil(t, f.tickets.rows[0].UserID)
	assert.Equal(t, profB, *f.tickets.rows[0].UserID)
}

func TestProcess_ResolvesByCheckoutID(t *testing.T) {
	f := newPaymentFixture()
	ev := paidEvent()
	ev.PaymentID = ""

	require.NoError(t, f.proc.Process(context.Background(), ev))
	assert.Equal(t, "pay-1", f.tickets.rows[0].PaymentID)
}

func TestProcess_UnresolvedPaymentWritesNothing(t *testing.T) {
	f := newPaymentFixture()
	ev := paidEvent()
	ev.PaymentID = "nope"
	ev.CheckoutID = "cs_unknown"

	err := f.proc.Process(context.Background(), ev)
	assert.ErrorIs(t, err, ErrUnresolvedPayment)
	assert.Empty(t, f.payments.paid)
	assert.Empty(t, f.tickets.rows)
	require.Len(t, f.events.rows, 1)
	assert.ErrorIs(t, f.events.rows[0].err, ErrUnresolvedPayment)
}

func TestProcess_FanOutFailuresDoNotUndoTicket(t *testing.T) {
	f := newPaymentFixture()
	f.mail.err = errors.New("smtp down")
	f.notes.errFn = func(n model.Notification) error {
		if n.Type == model.NotifyTicketSold {
			return errors.New("insert failed")
		}
		return nil
	}

	require.NoError(t, f.proc.Process(context.Background(), paidEvent()))
	assert.Len(t, f.tickets.rows, 1)
	require.Len(t, f.notes.rows, 1, "buyer notification still written")
	assert.Equal(t, profB, f.notes.rows[0].UserID)
}

func TestProcess_HardFailures(t *testing.T) {
	t.Run("mark paid", func(t *testing.T) {
		f := newPaymentFixture()
		f.payments.paidErr = errors.New("deadlock")
		assert.Error(t, f.proc.Process(context.Background(), paidEvent()))
		assert.Zero(t, f.tickets.creates)
	})
	t.Run("ticket insert", func(t *testing.T) {
		f := newPaymentFixture()
		f.tickets.createErr = errors.New("fk violation")
		err := f.proc.Process(context.Background(), paidEvent())
		assert.Error(t, err)
		assert.Empty(t, f.notes.rows)
		assert.Empty(t, f.mail.sent)
		assert.Error(t, f.events.rows[0].err)
	})
	t.Run("concurrent duplicate", func(t *testing.T) {
		f := newPaymentFixture()
		f.tickets.createErr = repository.ErrDuplicate
		assert.NoError(t, f.proc.Process(context.Background(), paidEvent()))
		assert.Empty(t, f.notes.rows)
	})
	t.Run("no show", func(t *testing.T) {
		f := newPaymentFixture()
		ev := paidEvent()
		ev.ShowID = ""
		assert.ErrorIs(t, f.proc.Process(context.Background(), ev), ErrMissingShow)
		assert.Empty(t, f.payments.paid, "payment must stay unpaid without a ticket")
		assert.Zero(t, f.tickets.creates)
	})
}

type fakePublisher struct {
	err  error
	sent []queue.PaymentPaidEvent
}

func (f *fakePublisher) PublishPaymentPaid(_ context.Context, ev queue.PaymentPaidEvent) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ev)
	return nil
}

func TestPaymentDispatcher(t *testing.T) {
	var mu sync.Mutex
	var processed []string
	process := func(_ context.Context, ev queue.PaymentPaidEvent) error {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, ev.EventID)
		return nil
	}

	t.Run("publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		d := &PaymentDispatcher{Publisher: pub, Runner: NewBackgroundRunner(0), Process: process}
		d.Dispatch(context.Background(), queue.PaymentPaidEvent{EventID: "evt_q"})
		assert.True(t, d.Runner.Wait(context.Background()))
		assert.Len(t, pub.sent, 1)
	})
	t.Run("publish failure falls back", func(t *testing.T) {
		d := &PaymentDispatcher{Publisher: &fakePublisher{err: errors.New("no broker")}, Runner: NewBackgroundRunner(time.Second), Process: process}
		d.Dispatch(context.Background(), queue.PaymentPaidEvent{EventID: "evt_fb"})
		assert.True(t, d.Runner.Wait(context.Background()))
	})
	t.Run("in-process outlives request context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		d := &PaymentDispatcher{Runner: NewBackgroundRunner(0), Process: func(ctx context.Context, ev queue.PaymentPaidEvent) error {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return process(ctx, ev)
		}}
		d.Dispatch(ctx, queue.PaymentPaidEvent{EventID: "evt_ip"})
		cancel()
		assert.True(t, d.Runner.Wait(context.Background()))
	})

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"evt_fb", "evt_ip"}, processed)
}
