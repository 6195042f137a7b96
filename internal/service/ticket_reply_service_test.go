package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCreateReplyEnforcesMinimumLength(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	ticket := f.ticket(t, actor, "Printer jam")

	_, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "short")
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "content")

	_, err = f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "   <b></b>   ")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "  ninechars  ")
	requireCode(t, err, apperrors.CodeValidation)

	reply, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "  exactly 10  ")
	require.NoError(t, err)
	assert.Equal(t, "exactly 10", reply.Content)
	assert.Equal(t, 1, f.store.ReplyCount(ticket.ID))
}

func TestCreateReplySanitizesAndAudits(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	ticket := f.ticket(t, actor, "Printer jam")

	reply, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, `<script>alert(1)</script><b>Restarted</b> the spooler`)
	require.NoError(t, err)
	assert.Equal(t, "<b>Restarted</b> the spooler", reply.Content)
	assert.Equal(t, actor.ID, reply.UserID)
	require.NotNil(t, reply.Author)
	assert.Equal(t, "Ada", reply.Author.Name)

	logs := f.store.ActivitiesFor(domain.LogTicketReply)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created reply for ticket "+ticket.Code, logs[0].Description)
	assert.Equal(t, ticket.Code, logs[0].Properties["ticket_code"])
	assert.Equal(t, ticket.ID, logs[0].Properties["ticket_id"])

	last := f.published[len(f.published)-1]
	assert.Equal(t, events.EventTicketReplyCreated, last.Type)
}

func TestReplyContentKeepsPlainTextIntact(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	ticket := f.ticket(t, actor, "Printer jam")

	_, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "a&b&c&d")
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "content")

	_, err = f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "<i>a&b</i>&c&d&e")
	requireCode(t, err, apperrors.CodeValidation)

	var replyID string
	for _, content := range []string{
		`It's "fixed" now, R&D`,
		`<b>R&D</b> isn't down`,
	} {
		reply, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, content)
		require.NoError(t, err)
		assert.Equal(t, content, reply.Content)

		stored, err := f.replies.GetReply(f.ctx, ticket.ID, reply.ID)
		require.NoError(t, err)
		assert.Equal(t, content, stored.Content)
		replyID = reply.ID
	}

	updated, err := f.replies.UpdateReply(f.ctx, actor.ID, ticket.ID, replyID, util.Some(`Tom & Jerry's "printer"`))
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "printer"`, updated.Content)
}

func TestRepliesAreScopedToTheirTicket(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	first := f.ticket(t, actor, "Printer jam")
	second := f.ticket(t, actor, "VPN drops")
	reply, err := f.replies.CreateReply(f.ctx, actor.ID, first.ID, "Replaced the fuser unit")
	require.NoError(t, err)

	_, err = f.replies.GetReply(f.ctx, second.ID, reply.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.replies.UpdateReply(f.ctx, actor.ID, second.ID, reply.ID, util.Some("Moved to another ticket"))
	requireCode(t, err, apperrors.CodeNotFound)

	requireCode(t, f.replies.DeleteReply(f.ctx, actor.ID, second.ID, reply.ID), apperrors.CodeNotFound)
	assert.Equal(t, 1, f.store.ReplyCount(first.ID))

	_, err = f.replies.GetReply(f.ctx, "8a4c3c5e-7d1f-4a53-9d35-6f4f2a9e0b11", reply.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	got, err := f.replies.GetReply(f.ctx, first.ID, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, got.ID)
}

func TestUpdateReply(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	ticket := f.ticket(t, actor, "Printer jam")
	reply, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "Replaced the fuser unit")
	require.NoError(t, err)

	unchanged, err := f.replies.UpdateReply(f.ctx, actor.ID, ticket.ID, reply.ID, util.Optional[string]{})
	require.NoError(t, err)
	assert.Equal(t, reply.Content, unchanged.Content)

	_, err = f.replies.UpdateReply(f.ctx, actor.ID, ticket.ID, reply.ID, util.Some("tiny"))
	requireCode(t, err, apperrors.CodeValidation)
	assert.Len(t, f.store.ActivitiesFor(domain.LogTicketReply), 1)

	updated, err := f.replies.UpdateReply(f.ctx, actor.ID, ticket.ID, reply.ID, util.Some("Replaced the fuser and drum"))
	require.NoError(t, err)
	assert.Equal(t, "Replaced the fuser and drum", updated.Content)

	logs := f.store.ActivitiesFor(domain.LogTicketReply)
	require.Len(t, logs, 2)
	assert.Equal(t, "Updated reply "+reply.ID+" for ticket "+ticket.Code, logs[1].Description)
	assert.Equal(t, map[string]any{"content": "Replaced the fuser unit"}, logs[1].Properties["old"])
}

func TestDeleteReply(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	ticket := f.ticket(t, actor, "Printer jam")
	reply, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "Replaced the fuser unit")
	require.NoError(t, err)

	require.NoError(t, f.replies.DeleteReply(f.ctx, actor.ID, ticket.ID, reply.ID))
	assert.Zero(t, f.store.ReplyCount(ticket.ID))

	logs := f.store.ActivitiesFor(domain.LogTicketReply)
	last := logs[len(logs)-1]
	assert.Equal(t, "Deleted reply "+reply.ID+" for ticket "+ticket.Code, last.Description)
	assert.Equal(t, map[string]any{
		"ticket_reply_id": reply.ID, "ticket_id": ticket.ID, "ticket_code": ticket.Code,
	}, last.Properties)
}

func TestListRepliesLoadsAuthorRoles(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	agent := f.user(t, "Bob", "bob@example.com")
	role := &domain.Role{Name: "agent"}
	require.NoError(t, f.repos.Roles.Create(f.ctx, role))
	require.NoError(t, f.repos.Users.SyncRoles(f.ctx, agent.ID, []string{role.ID}))

	ticket := f.ticket(t, actor, "Printer jam")
	_, err := f.replies.CreateReply(f.ctx, actor.ID, ticket.ID, "It is jammed again today")
	require.NoError(t, err)
	_, err = f.replies.CreateReply(f.ctx, agent.ID, ticket.ID, "On my way with a new drum")
	require.NoError(t, err)

	page, err := f.replies.ListReplies(f.ctx, ticket.ID, domain.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, actor.ID, page.Items[0].UserID, "oldest first")
	assert.Empty(t, page.Items[0].Author.Roles)
	assert.Equal(t, []string{"agent"}, page.Items[1].Author.Roles)

	_, err = f.replies.ListReplies(f.ctx, "8a4c3c5e-7d1f-4a53-9d35-6f4f2a9e0b11", domain.ListParams{})
	requireCode(t, err, apperrors.CodeNotFound)
}
