package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/stagelink/internal/apperr"
	"github.com/iliyamo/stagelink/internal/mailer"
	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/repository"
)

// ProfileStore looks up profiles by either identity key.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (model.Profile, error)
	GetByUserID(ctx context.Context, accountID string) (model.Profile, error)
}

// CollaborationStore persists collaboration requests.
type CollaborationStore interface {
	FindBetween(ctx context.Context, a, b string) (*model.CollaborationRequest, error)
	Insert(ctx context.Context, senderID, receiverID string) (model.CollaborationRequest, error)
	Reopen(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (model.CollaborationRequest, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
	ListIncoming(ctx context.Context, receiverIDs []string) ([]model.CollaborationRequest, error)
}

// NotificationStore writes in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) error
}

// AccountDirectory resolves an account id to its email address.
type AccountDirectory interface {
	EmailByAccountID(ctx context.Context, accountID string) (string, error)
}

// Mailer sends email.  Enabled is false when no provider is configured.
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, m mailer.Message) error
}

// Caller is the authenticated account making a request.
type Caller struct {
	AccountID string
	Email     string
}

// Messages returned by Propose once the request is recorded.
const (
	MsgProposalSent          = "Collaboration request sent successfully"
	MsgRecipientEmailMissing = "Request sent, but recipient email not found."
	MsgEmailsIncomplete      = "Request sent, but email addresses are incomplete."
	MsgEmailNotConfigured    = "Request sent. Email delivery is not configured."
	MsgEmailFailed           = "Request sent, but email delivery failed."
)

const msgInvalidIdentity = "Invalid sender/recipient id"

// Validation failures of Propose.
var (
	errRecipientRequired = apperr.InvalidArg("Recipient Profile ID is required")
	errRecipientInvalid  = apperr.InvalidArg("Invalid Recipient Profile ID")
	errSenderNotFound    = apperr.NotFound("Sender profile not found")
	errRoleNotAllowed    = apperr.Forbidden("Only Producers and Admins can send collaboration requests")
	errRecipientNotFound = apperr.NotFound("Recipient profile not found")
	errSelfCollaboration = apperr.InvalidArg("You cannot collaborate with yourself")
	errInvalidIdentity   = apperr.InvalidArg(msgInvalidIdentity)
	errPendingExists     = apperr.TooManyRequests("You already have a pending collaboration request.")
)

// ProposalResult is the outcome of a successful proposal.  EmailSent is nil
// when no delivery was attempted.
type ProposalResult struct {
	Message   string
	EmailSent *bool
	Request   model.CollaborationRequest
	Reopened  bool
}

// CollaborationService implements collaboration proposals and their
// answers.
type CollaborationService struct {
	Profiles      ProfileStore
	Requests      CollaborationStore
	Notifications NotificationStore
	Accounts      AccountDirectory
	Mail          Mailer
	SiteURL       string
}

// Propose records a collaboration request from the caller's profile to
// recipientProfileID and notifies the recipient.  Once the request row is
// written, every later failure degrades the message instead of failing.
func (s *CollaborationService) Propose(ctx context.Context, caller Caller, recipientProfileID string) (ProposalResult, error) {
	recipientProfileID = strings.TrimSpace(recipientProfileID)
	if recipientProfileID == "" {
		return ProposalResult{}, errRecipientRequired
	}
	if !IsUUID(recipientProfileID) {
		return ProposalResult{}, errRecipientInvalid
	}

	sender, err := s.Profiles.GetByUserID(ctx, caller.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProposalResult{}, errSenderNotFound
		}
		return ProposalResult{}, apperr.Internal("failed to load sender profile", err)
	}
	if !sender.CanProposeCollaboration() {
		return ProposalResult{}, errRoleNotAllowed
	}

	recipient, err := s.Profiles.GetByID(ctx, recipientProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProposalResult{}, errRecipientNotFound
		}
		return ProposalResult{}, apperr.Internal("failed to load recipient profile", err)
	}
	if sender.ID == recipient.ID {
		return ProposalResult{}, errSelfCollaboration
	}

	senders := BuildCandidates(sender.ID, sender.UserID, caller.AccountID)
	receivers := BuildCandidates(recipient.ID, recipient.UserID)
	if len(senders) == 0 || len(receivers) == 0 {
		return ProposalResult{}, errInvalidIdentity
	}

	existing, err := ResolveExistingRequest(ctx, CandidatePairs(senders, receivers), s.Requests.FindBetween)
	if err != nil {
		return ProposalResult{}, apperr.Internal("failed to check existing requests", err)
	}

	var res ProposalResult
	switch {
	case existing != nil && existing.IsPending():
		return ProposalResult{}, errPendingExists
	case existing != nil:
		if err := s.Requests.Reopen(ctx, existing.ID); err != nil {
			if repository.IsDuplicate(err) {
				return ProposalResult{}, errPendingExists
			}
			return ProposalResult{}, apperr.Internal("failed to reopen collaboration request", err)
		}
		res.Request = *existing
		res.Request.Status = model.CollabPending
		res.Reopened = true
	default:
		req, err := s.insert(ctx, senders[0], receivers[0], sender, recipient)
		if err != nil {
			return ProposalResult{}, err
		}
		res.Request = req
	}

	senderName := sender.DisplayName("Someone")
	actor := sender.ID
	_ = BestEffort(ctx, "collab notification", func(ctx context.Context) error {
		return s.Notifications.Create(ctx, model.Notification{
			UserID:  recipient.ID,
			ActorID: &actor,
			Type:    model.NotifyCollaborationRequest,
			Title:   "New Collaboration Request",
			Message: senderName + " wants to collaborate with you.",
			Link:    "/dashboard",
		})
	})

	recipientEmail, err := s.Accounts.EmailByAccountID(ctx, recipient.UserID)
	if err != nil {
		log.Printf("collab: recipient email lookup failed: %v", err)
		res.Message = MsgRecipientEmailMissing
		return res, nil
	}
	senderEmail := caller.Email
	if senderEmail == "" {
		senderEmail, _ = s.Accounts.EmailByAccountID(ctx, caller.AccountID)
	}
	if recipientEmail == "" || senderEmail == "" {
		res.Message = MsgEmailsIncomplete
		return res, nil
	}
	if s.Mail == nil || !s.Mail.Enabled() {
		res.Message = MsgEmailNotConfigured
		return res, nil
	}

	msg, err := mailer.CollabInquiryMessage(recipientEmail, mailer.CollabInquiry{
		SenderName:       senderName,
		SenderNiche:      sender.Niche,
		SenderUniversity: sender.University,
		SenderRole:       sender.ProducerRole,
		SenderEmail:      senderEmail,
		SenderProfileURL: s.SiteURL + "/producer/" + sender.ID,
		RecipientName:    recipient.DisplayName("Theater Group"),
	})
	sent := false
	if err == nil {
		err = BestEffort(ctx, "collab email", func(ctx context.Context) error { return s.Mail.Send(ctx, msg) })
		sent = err == nil
	} else {
		log.Printf("collab: render email failed: %v", err)
	}
	res.EmailSent = &sent
	if sent {
		res.Message = MsgProposalSent
	} else {
		res.Message = MsgEmailFailed
	}
	return res, nil
}

// insert writes a new pending request.  When the database rejects one side
// with a foreign-key error, that side is retried once with the profile's
// account id, since older schemas point the keys at accounts.
func (s *CollaborationService) insert(ctx context.Context, senderID, receiverID string, sender, recipient model.Profile) (model.CollaborationRequest, error) {
	senderSwapped, receiverSwapped := false, false
	for {
		req, err := s.Requests.Insert(ctx, senderID, receiverID)
		if err == nil {
			return req, nil
		}
		if repository.IsDuplicate(err) {
			return model.CollaborationRequest{}, errPendingExists
		}
		col, isFK := repository.ForeignKeyColumn(err)
		if !isFK {
			return model.CollaborationRequest{}, apperr.Internal("failed to record collaboration request", err)
		}
		switch {
		case col == "sender_id" && !senderSwapped && IsUUID(sender.UserID) && sender.UserID != senderID:
			log.Printf("collab: sender_id rejected, retrying with account id")
			senderID, senderSwapped = sender.UserID, true
		case col == "receiver_id" && !receiverSwapped && IsUUID(recipient.UserID) && recipient.UserID != receiverID:
			log.Printf("collab: receiver_id rejected, retrying with account id")
			receiverID, receiverSwapped = recipient.UserID, true
		default:
			return model.CollaborationRequest{}, apperr.Wrap(apperr.CodeInvalidArgument, msgInvalidIdentity, err)
		}
	}
}

// ListIncoming returns pending requests addressed to the caller under
// either of their identity keys.
func (s *CollaborationService) ListIncoming(ctx context.Context, caller Caller) ([]model.CollaborationRequest, error) {
	p, err := s.Profiles.GetByUserID(ctx, caller.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Profile not found")
		}
		return nil, apperr.Internal("failed to load profile", err)
	}
	reqs, err := s.Requests.ListIncoming(ctx, BuildCandidates(p.ID, p.UserID))
	if err != nil {
		return nil, apperr.Internal("failed to list collaboration requests", err)
	}
	if reqs == nil {
		reqs = []model.CollaborationRequest{}
	}
	return reqs, nil
}

// Respond accepts or rejects a pending request addressed to the caller.
// Accepting notifies the sender.
func (s *CollaborationService) Respond(ctx context.Context, caller Caller, requestID string, accept bool) (model.CollaborationRequest, error) {
	p, err := s.Profiles.GetByUserID(ctx, caller.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CollaborationRequest{}, apperr.NotFound("Profile not found")
		}
		return model.CollaborationRequest{}, apperr.Internal("failed to load profile", err)
	}
	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CollaborationRequest{}, apperr.NotFound("Collaboration request not found")
		}
		return model.CollaborationRequest{}, apperr.Internal("failed to load collaboration request", err)
	}
	if req.ReceiverID != p.ID && req.ReceiverID != p.UserID {
		return model.CollaborationRequest{}, apperr.Forbidden("Only the recipient can respond to this request")
	}
	if !req.IsPending() {
		return model.CollaborationRequest{}, apperr.Conflict("Collaboration request is no longer pending")
	}

	to := model.CollabRejected
	if accept {
		to = model.CollabAccepted
	}
	if err := s.Requests.UpdateStatus(ctx, req.ID, model.CollabPending, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.CollaborationRequest{}, apperr.Conflict("Collaboration request is no longer pending")
		}
		return model.CollaborationRequest{}, apperr.Internal("failed to update collaboration request", err)
	}
	req.Status = to

	if accept {
		actor := p.ID
		name := p.DisplayName("A theater group")
		_ = BestEffort(ctx, "collab accepted notification", func(ctx context.Context) error {
			sender, err := s.profileByAnyID(ctx, req.SenderID)
			if err != nil {
				return err
			}
			return s.Notifications.Create(ctx, model.Notification{
				UserID:  sender.ID,
				ActorID: &actor,
				Type:    model.NotifyCollaborationAccepted,
				Title:   "Collab Request Accepted",
				Message: name + " accepted your collaboration request.",
				Link:    "/dashboard",
			})
		})
	}
	return req, nil
}

// profileByAnyID resolves an id stored on a request, which may be either a
// profile id or an account id.
func (s *CollaborationService) profileByAnyID(ctx context.Context, id string) (model.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return s.Profiles.GetByUserID(ctx, id)
	}
	return p, err
}
