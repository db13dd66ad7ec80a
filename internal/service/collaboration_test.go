package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stagelink/internal/apperr"
	"github.com/iliyamo/stagelink/internal/mailer"
	"github.com/iliyamo/stagelink/internal/model"
)

type collabFixture struct {
	svc      *CollaborationService
	profiles *fakeProfiles
	requests *fakeRequests
	notes    *fakeNotifications
	mail     *fakeMailer
	producer model.Profile
	group    model.Profile
	caller   Caller
}

func newCollabFixture() *collabFixture {
	producer := model.Profile{ID: profA, UserID: acctA, Role: model.RoleProducer, GroupName: "Producer P", Niche: model.NicheLocal}
	group := model.Profile{ID: profB, UserID: acctB, Role: model.RoleAudience, GroupName: "Group Q"}
	f := &collabFixture{
		profiles: newFakeProfiles(producer, group),
		requests: &fakeRequests{},
		notes:    &fakeNotifications{},
		mail:     &fakeMailer{enabled: true},
		producer: producer,
		group:    group,
		caller:   Caller{AccountID: acctA, Email: "p@stagelink.show"},
	}
	f.svc = &CollaborationService{
		Profiles:      f.profiles,
		Requests:      f.requests,
		Notifications: f.notes,
		Accounts:      fakeDirectory{acctA: "p@stagelink.show", acctB: "q@stagelink.show"},
		Mail:          f.mail,
		SiteURL:       "https://www.stagelink.show",
	}
	return f
}

func fkError(col string) error {
	return &mysql.MySQLError{
		Number: 1452,
		Message: "Cannot add or update a child row: a foreign key constraint fails (`stagelink`.`collaboration_requests`, " +
			"CONSTRAINT `collaboration_requests_" + col + "_fkey` FOREIGN KEY (`" + col + "`) REFERENCES `profiles` (`id`))",
	}
}

func TestPropose_NewRequest(t *testing.T) {
	f := newCollabFixture()

	res, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	assert.Equal(t, MsgProposalSent, res.Message)
	require.NotNil(t, res.EmailSent)
	assert.True(t, *res.EmailSent)
	assert.False(t, res.Reopened)

	require.Len(t, f.requests.rows, 1)
	row := f.requests.rows[0]
	assert.Equal(t, profA, row.SenderID)
	assert.Equal(t, profB, row.ReceiverID)
	assert.Equal(t, model.CollabPending, row.Status)

	require.Len(t, f.notes.rows, 1)
	n := f.notes.rows[0]
	assert.Equal(t, profB, n.UserID)
	assert.Equal(t, model.NotifyCollaborationRequest, n.Type)
	assert.Equal(t, "Producer P wants to collaborate with you.", n.Message)
	require.NotNil(t, n.ActorID)
	assert.Equal(t, profA, *n.ActorID)

	require.Len(t, f.mail.sent, 1)
	m := f.mail.sent[0]
	assert.Equal(t, []string{"q@stagelink.show"}, m.To)
	assert.Equal(t, "p@stagelink.show", m.ReplyTo)
	assert.Equal(t, "🤝 New Theater Collaboration Inquiry: Producer P x Group Q", m.Subject)
	assert.Contains(t, m.HTML, "Local/Community Theater")
	assert.Contains(t, m.HTML, "https://www.stagelink.show/producer/"+profA)
}

func TestPropose_ReopensDecidedRequest(t *testing.T) {
	f := newCollabFixture()
	f.requests.rows = []model.CollaborationRequest{{ID: "r1", SenderID: profA, ReceiverID: profB, Status: model.CollabRejected}}

	res, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	assert.True(t, res.Reopened)
	assert.Equal(t, "r1", res.Request.ID)
	assert.Equal(t, []string{"r1"}, f.requests.reopened)
	assert.Empty(t, f.requests.inserts)
	require.Len(t, f.requests.rows, 1)
	assert.Equal(t, model.CollabPending, f.requests.rows[0].Status)
}

func TestPropose_ReopensLegacyRowKeyedByAccounts(t *testing.T) {
	f := newCollabFixture()
	f.requests.rows = []model.CollaborationRequest{{ID: "legacy", SenderID: acctB, ReceiverID: acctA, Status: model.CollabAccepted}}

	res, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	assert.Equal(t, "legacy", res.Request.ID)
	assert.Empty(t, f.requests.inserts)
}

func TestPropose_PendingInEitherDirectionIs429(t *testing.T) {
	for name, row := range map[string]model.CollaborationRequest{
		"forward": {ID: "r1", SenderID: profA, ReceiverID: profB, Status: model.CollabPending},
		"reverse": {ID: "r2", SenderID: profB, ReceiverID: profA, Status: model.CollabPending},
		"legacy":  {ID: "r3", SenderID: acctA, ReceiverID: acctB, Status: model.CollabPending},
	} {
		t.Run(name, func(t *testing.T) {
			f := newCollabFixture()
			f.requests.rows = []model.CollaborationRequest{row}

			_, err := f.svc.Propose(context.Background(), f.caller, profB)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeResourceExhausted, apperr.CodeOf(err))
			assert.Equal(t, 429, apperr.CodeOf(err).HTTPStatus())
			assert.Empty(t, f.requests.inserts)
			assert.Empty(t, f.requests.reopened)
			assert.Empty(t, f.notes.rows)
		})
	}
}

func TestPropose_SelfIsRejectedWithoutWrites(t *testing.T) {
	f := newCollabFixture()
	_, err := f.svc.Propose(context.Background(), f.caller, profA)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, "You cannot collaborate with yourself", apperr.From(err).Message)
	assert.Zero(t, f.requests.lookups)
	assert.Empty(t, f.requests.inserts)
	assert.Empty(t, f.notes.rows)
}

func TestPropose_NoValidCandidatesIs400BeforeLookup(t *testing.T) {
	f := newCollabFixture()
	delete(f.profiles.byID, profA)
	f.profiles.byID["legacy-sender"] = model.Profile{ID: "legacy-sender", UserID: "legacy-account", Role: model.RoleProducer}

	_, err := f.svc.Propose(context.Background(), Caller{AccountID: "legacy-account"}, profB)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, "Invalid sender/recipient id", apperr.From(err).Message)
	assert.Zero(t, f.requests.lookups)
}

func TestPropose_MalformedRecipientIs400(t *testing.T) {
	f := newCollabFixture()
	f.profiles.byID["not-a-uuid"] = model.Profile{ID: "not-a-uuid", UserID: acctB, Role: model.RoleAudience}

	for _, id := range []string{"not-a-uuid", "c0c0c0c0-1111-0222-8333-444455556666", profB + "x"} {
		_, err := f.svc.Propose(context.Background(), f.caller, id)
		require.Error(t, err, id)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err), id)
		assert.Equal(t, "Invalid Recipient Profile ID", apperr.From(err).Message, id)
	}
	assert.Zero(t, f.requests.lookups)
	assert.Empty(t, f.requests.inserts)
}

func TestPropose_ValidationOrder(t *testing.T) {
	f := newCollabFixture()

	_, err := f.svc.Propose(context.Background(), f.caller, "  ")
	assert.Equal(t, "Recipient Profile ID is required", apperr.From(err).Message)

	_, err = f.svc.Propose(context.Background(), Caller{AccountID: "nobody"}, profB)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.Equal(t, "Sender profile not found", apperr.From(err).Message)

	_, err = f.svc.Propose(context.Background(), Caller{AccountID: acctB}, profA)
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))

	_, err = f.svc.Propose(context.Background(), f.caller, "c0c0c0c0-1111-4222-8333-444455556666")
	assert.Equal(t, "Recipient profile not found", apperr.From(err).Message)
}

func TestPropose_AdminMayPropose(t *testing.T) {
	f := newCollabFixture()
	admin := f.producer
	admin.Role = model.RoleAdmin
	f.profiles.byID[profA] = admin

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	assert.NoError(t, err)
}

func TestPropose_SenderForeignKeyFallsBackToAccountID(t *testing.T) {
	f := newCollabFixture()
	f.requests.insertErrs = []error{fkError("sender_id")}

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	require.Len(t, f.requests.inserts, 2)
	assert.Equal(t, profA, f.requests.inserts[0].Sender)
	assert.Equal(t, acctA, f.requests.inserts[1].Sender)
	assert.Equal(t, profB, f.requests.inserts[1].Receiver)
}

func TestPropose_BothForeignKeysFallBack(t *testing.T) {
	f := newCollabFixture()
	f.requests.insertErrs = []error{fkError("receiver_id"), fkError("sender_id")}

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	require.Len(t, f.requests.inserts, 3)
	last := f.requests.inserts[2]
	assert.Equal(t, acctA, last.Sender)
	assert.Equal(t, acctB, last.Receiver)
}

func TestPropose_ForeignKeyExhaustionIs400(t *testing.T) {
	f := newCollabFixture()
	f.requests.insertErrs = []error{fkError("sender_id"), fkError("sender_id")}

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, "Invalid sender/recipient id", apperr.From(err).Message)
	assert.Len(t, f.requests.inserts, 2)
}

func TestPropose_DuplicateOnInsertIs429(t *testing.T) {
	f := newCollabFixture()
	f.requests.insertErrs = []error{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'ux_collaboration_requests_pending_pair'"}}

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	assert.Equal(t, apperr.CodeResourceExhausted, apperr.CodeOf(err))
}

func TestPropose_OtherInsertErrorIsInternal(t *testing.T) {
	f := newCollabFixture()
	f.requests.insertErrs = []error{errors.New("connection reset")}

	_, err := f.svc.Propose(context.Background(), f.caller, profB)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}

func TestPropose_EmailFailureStillSucceeds(t *testing.T) {
	f := newCollabFixture()
	f.mail.err = mailer.ErrDeliveryFailed

	res, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	assert.Equal(t, MsgEmailFailed, res.Message)
	require.NotNil(t, res.EmailSent)
	assert.False(t, *res.EmailSent)
	require.Len(t, f.requests.rows, 1)
	assert.Equal(t, model.CollabPending, f.requests.rows[0].Status)
}

func TestPropose_NotificationFailureIsSwallowed(t *testing.T) {
	f := newCollabFixture()
	f.notes.errFn = func(model.Notification) error { return errors.New("notifications table locked") }

	res, err := f.svc.Propose(context.Background(), f.caller, profB)
	require.NoError(t, err)
	assert.Equal(t, MsgProposalSent, res.Message)
}

func TestPropose_EmailDegradations(t *testing.T) {
	t.Run("recipient email lookup fails", func(t *testing.T) {
		f := newCollabFixture()
		f.svc.Accounts = fakeDirectory{acctA: "p@stagelink.show"}
		res, err := f.svc.Propose(context.Background(), f.caller, profB)
		require.NoError(t, err)
		assert.Equal(t, MsgRecipientEmailMissing, res.Message)
		assert.Nil(t, res.EmailSent)
	})
	t.Run("recipient email blank", func(t *testing.T) {
		f := newCollabFixture()
		f.svc.Accounts = fakeDirectory{acctA: "p@stagelink.show", acctB: ""}
		res, err := f.svc.Propose(context.Background(), f.caller, profB)
		require.NoError(t, err)
		assert.Equal(t, MsgEmailsIncomplete, res.Message)
	})
	t.Run("no api key", func(t *testing.T) {
		f := newCollabFixture()
		f.mail.enabled = false
		res, err := f.svc.Propose(context.Background(), f.caller, profB)
		require.NoError(t, err)
		assert.Equal(t, MsgEmailNotConfigured, res.Message)
		assert.Empty(t, f.mail.sent)
	})
}

func TestRespond_AcceptNotifiesSender(t *testing.T) {
	f := newCollabFixture()
	f.requests.rows = []model.CollaborationRequest{{ID: "r1", SenderID: profA, ReceiverID: profB, Status: model.CollabPending}}

	req, err := f.svc.Respond(context.Background(), Caller{AccountID: acctB}, "r1", true)
	require.NoError(t, err)
	assert.Equal(t, model.CollabAccepted, req.Status)
	require.Len(t, f.notes.rows, 1)
	assert.Equal(t, profA, f.notes.rows[0].UserID)
	assert.Equal(t, model.NotifyCollaborationAccepted, f.notes.rows[0].Type)
	assert.Equal(t, "Collab Request Accepted", f.notes.rows[0].Title)
}

func TestRespond_Guards(t *testing.T) {
	f := newCollabFixture()
	f.requests.rows = []model.CollaborationRequest{
		{ID: "r1", SenderID: profA, ReceiverID: profB, Status: model.CollabPending},
		{ID: "r2", SenderID: profA, ReceiverID: profB, Status: model.CollabRejected},
	}

	_, err := f.svc.Respond(context.Background(), f.caller, "r1", true)
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))

	_, err = f.svc.Respond(context.Background(), Caller{AccountID: acctB}, "r2", false)
	assert.Equal(t, 409, apperr.CodeOf(err).HTTPStatus())

	_, err = f.svc.Respond(context.Background(), Caller{AccountID: acctB}, "missing", false)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.svc.Respond(context.Background(), Caller{AccountID: acctB}, "r1", false)
	require.NoError(t, err)
	assert.Empty(t, f.notes.rows)
}

func TestListIncoming(t *testing.T) {
	f := newCollabFixture()
	f.requests.rows = []model.CollaborationRequest{
		{ID: "r1", SenderID: profA, ReceiverID: profB, Status: model.CollabPending},
		{ID: "r2", SenderID: profA, ReceiverID: acctB, Status: model.CollabPending},
		{ID: "r3", SenderID: profA, ReceiverID: profB, Status: model.CollabAccepted},
	}
	got, err := f.svc.ListIncoming(context.Background(), Caller{AccountID: acctB})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.ListIncoming(context.Background(), f.caller)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
