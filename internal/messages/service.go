package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

const maxBodyLength = 4000

// Thread is a conversation with its message history.
type Thread struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

// Service handles shopper/back-office messaging. Each shopper has at most one
// conversation; sending reuses it when present.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Send appends a shopper message, creating the conversation on first contact.
func (s *Service) Send(ctx context.Context, caller *shared.Identity, subject, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", httpx.ErrValidation)
	}
	if len(body) > maxBodyLength {
		return nil, fmt.Errorf("%w: message body too long", httpx.ErrValidation)
	}

	now := time.Now().UTC()
	conversation, err := s.repo.FindByUser(ctx, caller.UserID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		subject = strings.TrimSpace(subject)
		if subject == "" {
			subject = "Support request"
		}
		conversation = &Conversation{
			ID:            uuid.NewString(),
			UserID:        caller.UserID,
			UserName:      caller.FullName,
			Subject:       subject,
			LastMessageAt: now,
			CreatedAt:     now,
		}
		if err := s.repo.Create(ctx, conversation); err != nil {
			return nil, err
		}
	}

	message := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		SenderID:       caller.UserID,
		SenderName:     caller.FullName,
		Body:           body,
		CreatedAt:      now,
	}
	if err := s.repo.Append(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// MyThread returns the caller's conversation and marks staff replies read.
func (s *Service) MyThread(ctx context.Context, caller *shared.Identity) (*Thread, error) {
	conversation, err := s.repo.FindByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, conversation.ID, true); err != nil {
		return nil, err
	}
	list, err := s.repo.Messages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	return &Thread{Conversation: *conversation, Messages: list}, nil
}

// List returns every conversation, most recently active first.
func (s *Service) List(ctx context.Context) ([]Conversation, error) {
	return s.repo.List(ctx)
}

// AdminThread returns a conversation for staff and marks shopper messages read.
func (s *Service) AdminThread(ctx context.Context, id string) (*Thread, error) {
	conversation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, conversation.ID, false); err != nil {
		return nil, err
	}
	list, err := s.repo.Messages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	return &Thread{Conversation: *conversation, Messages: list}, nil
}

// Reply appends a staff message to an existing conversation.
func (s *Service) Reply(ctx context.Context, caller *shared.Identity, conversationID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", httpx.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	message := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       caller.UserID,
		SenderName:     caller.FullName,
		Body:           body,
		IsFromAdmin:    true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// UnreadFromShoppers counts shopper messages awaiting a staff read.
func (s *Service) UnreadFromShoppers(ctx context.Context) (int, error) {
	return s.repo.UnreadFromShoppers(ctx)
}
