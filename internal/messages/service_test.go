package messages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

type memoryRepo struct {
	conversations map[string]*Conversation
	messages      []Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{conversations: make(map[string]*Conversation)}
}

func (r *memoryRepo) FindByUser(ctx context.Context, userID string) (*Conversation, error) {
	for _, c := range r.conversations {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Get(ctx context.Context, id string) (*Conversation, error) {
	if c, ok := r.conversations[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]Conversation, error) {
	var list []Conversation
	for _, c := range r.conversations {
		list = append(list, *c)
	}
	return list, nil
}

func (r *memoryRepo) Create(ctx context.Context, c *Conversation) error {
	r.conversations[c.ID] = c
	return nil
}

func (r *memoryRepo) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var list []Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			list = append(list, m)
		}
	}
	return list, nil
}

func (r *memoryRepo) Append(ctx context.Context, m *Message) error {
	c, ok := r.conversations[m.ConversationID]
	if !ok {
		return shared.ErrNotFound
	}
	c.LastMessageAt = m.CreatedAt
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memoryRepo) MarkRead(ctx context.Context, conversationID string, fromAdmin bool) error {
	for i := range r.messages {
		if r.messages[i].ConversationID == conversationID && r.messages[i].IsFromAdmin == fromAdmin {
			r.messages[i].IsRead = true
		}
	}
	return nil
}

func (r *memoryRepo) UnreadFromShoppers(ctx context.Context) (int, error) {
	count := 0
	for _, m := range r.messages {
		if !m.IsFromAdmin && !m.IsRead {
			count++
		}
	}
	return count, nil
}

var (
	shopper = &shared.Identity{UserID: "u1", FullName: "Rin Tohsaka"}
	staff   = &shared.Identity{UserID: "boss", FullName: "Store Staff", IsAdmin: true}
)

func TestSendReusesConversation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Send(ctx, shopper, "Order question", "Where is my figure?")
	require.NoError(t, err)
	second, err := svc.Send(ctx, shopper, "", "Still waiting")
	require.NoError(t, err)

	require.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, repo.conversations, 1)
	require.Len(t, repo.messages, 2)
}

func TestSendRejectsEmptyBody(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Send(context.Background(), shopper, "", "   ")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAdminThreadMarksShopperMessagesRead(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	sent, err := svc.Send(ctx, shopper, "Hi", "Hello there")
	require.NoError(t, err)

	unread, err := svc.UnreadFromShoppers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	thread, err := svc.AdminThread(ctx, sent.ConversationID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	require.True(t, thread.Messages[0].IsRead)

	unread, err = svc.UnreadFromShoppers(ctx)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestReplyAppendsStaffMessage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	sent, err := svc.Send(ctx, shopper, "Hi", "Hello there")
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, staff, sent.ConversationID, "On its way")
	require.NoError(t, err)
	require.True(t, reply.IsFromAdmin)

	_, err = svc.Reply(ctx, staff, "missing", "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
