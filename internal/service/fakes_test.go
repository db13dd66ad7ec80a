package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/mailer"
	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/repository"
)

type fakeProfiles struct {
	byID map[string]model.Profile
	err  error
}

func newFakeProfiles(ps ...model.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[string]model.Profile{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (model.Profile, error) {
	if f.err != nil {
		return model.Profile{}, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return model.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, accountID string) (model.Profile, error) {
	if f.err != nil {
		return model.Profile{}, f.err
	}
	for _, p := range f.byID {
		if p.UserID == accountID {
			return p, nil
		}
	}
	return model.Profile{}, repository.ErrNotFound
}

type fakeRequests struct {
	rows       []model.CollaborationRequest
	lookups    int
	inserts    []Pair
	insertErrs []error
	reopened   []string
	reopenErr  error
	updates    int
}

func (f *fakeRequests) FindBetween(_ context.Context, a, b string) (*model.CollaborationRequest, error) {
	f.lookups++
	var found *model.CollaborationRequest
	for i := range f.rows {
		r := f.rows[i]
		if (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a) {
			if found == nil || r.IsPending() {
				found = &r
			}
		}
	}
	return found, nil
}

func (f *fakeRequests) Insert(_ context.Context, senderID, receiverID string) (model.CollaborationRequest, error) {
	f.inserts = append(f.inserts, Pair{Sender: senderID, Receiver: receiverID})
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return model.CollaborationRequest{}, err
		}
	}
	r := model.CollaborationRequest{ID: uuid.NewString(), SenderID: senderID, ReceiverID: receiverID, Status: model.CollabPending}
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeRequests) Reopen(_ context.Context, id string) error {
	if f.reopenErr != nil {
		return f.reopenErr
	}
	f.reopened = append(f.reopened, id)
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = model.CollabPending
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (model.CollaborationRequest, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return model.CollaborationRequest{}, repository.ErrNotFound
}

func (f *fakeRequests) UpdateStatus(_ context.Context, id, from, to string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			if f.rows[i].Status != from {
				return repository.ErrConflict
			}
			f.rows[i].Status = to
			f.updates++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRequests) ListIncoming(_ context.Context, receiverIDs []string) ([]model.CollaborationRequest, error) {
	var out []model.CollaborationRequest
	for _, r := range f.rows {
		for _, id := range receiverIDs {
			if r.ReceiverID == id && r.IsPending() {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	rows  []model.Notification
	errFn func(n model.Notification) error
}

func (f *fakeNotifications) Create(_ context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFn != nil {
		if err := f.errFn(n); err != nil {
			return err
		}
	}
	f.rows = append(f.rows, n)
	return nil
}

type fakeDirectory map[string]string

func (f fakeDirectory) EmailByAccountID(_ context.Context, id string) (string, error) {
	e, ok := f[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return e, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	enabled bool
	err     error
	sent    []mailer.Message
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}
