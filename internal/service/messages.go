package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/google/uuid"
)

// SendMessage appends an immutable message to a conversation. For
// non-text types the content must be a blob reference that resolves in
// the blob store at creation time.
func (s *Service) SendMessage(
	ctx context.Context,
	identity *models.Identity,
	conversationId string,
	messageType models.MessageType,
	content string,
	fileName string,
) (string, error) {
	const op = "service.SendMessage"

	if identity == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if !messageType.IsValid() {
		return "", fmt.Errorf("%s: %w: unknown message type %q", op, ErrValidation, messageType)
	}
	if content == "" {
		return "", fmt.Errorf("%s: %w: content is empty", op, ErrValidation)
	}

	sender, err := s.storage.GetUserByToken(ctx, identity.TokenIdentifier)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.getConversation(ctx, conversationId); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if messageType.IsBlob() {
		if err = s.blobs.CheckBlob(ctx, content); err != nil {
			if errors.Is(err, storage.ErrBlobNotFound) {
				return "", fmt.Errorf("%s: %w: content is not a stored blob reference", op, ErrValidation)
			}
			return "", fmt.Errorf("%s: %w: %w", op, ErrBlobStore, err)
		}
	}

	id := uuid.NewString()
	err = s.storage.SaveMessage(ctx, id, conversationId, sender.ID, messageType, content, fileName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// LatestMessage returns nil when the conversation has no messages yet.
func (s *Service) LatestMessage(ctx context.Context, conversationId string) (*models.Message, error) {
	const op = "service.LatestMessage"

	message, err := s.storage.GetLastMessage(ctx, conversationId)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &message, nil
}

// ListMessages returns the conversation's messages oldest first.
func (s *Service) ListMessages(ctx context.Context, identity *models.Identity, conversationId string) ([]models.Message, error) {
	const op = "service.ListMessages"

	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if _, err := s.getConversation(ctx, conversationId); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	messages, err := s.storage.GetConversationMessages(ctx, conversationId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messages, nil
}
