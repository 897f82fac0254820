package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/AlexMickh/speak-messenger/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteSummary reports what a conversation cascade removed.
type DeleteSummary struct {
	MessagesDeleted int64
	BlobsDeleted    int
	BlobsFailed     int
}

// CreateOrGetConversation returns the existing one-to-one conversation
// for the participant pair regardless of argument order, creating it
// (or a group) when absent.
func (s *Service) CreateOrGetConversation(
	ctx context.Context,
	identity *models.Identity,
	participantsId []string,
	isGroup bool,
	groupName string,
	groupImage string,
	adminId string,
) (string, error) {
	const op = "service.CreateOrGetConversation"

	if identity == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if err := validateParticipants(participantsId, isGroup); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := participantsKey(participantsId)

	if !isGroup {
		conversation, err := s.storage.GetDirectConversation(ctx, key)
		if err == nil {
			return conversation.ID, nil
		}
		if !errors.Is(err, storage.ErrConversationNotFound) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	var groupImageUrl string
	if groupImage != "" {
		var err error
		groupImageUrl, err = s.blobs.GetUrl(ctx, groupImage)
		if err != nil {
			return "", fmt.Errorf("%s: %w: %w", op, ErrBlobStore, err)
		}
	}

	id := uuid.NewString()
	err := s.storage.SaveConversation(ctx, id, participantsId, key, isGroup, groupName, groupImageUrl, adminId)
	if err != nil {
		// A concurrent create for the same pair can win the race; the
		// unique key turns that into a lookup instead of a duplicate.
		if !isGroup && errors.Is(err, storage.ErrConversationExists) {
			conversation, getErr := s.storage.GetDirectConversation(ctx, key)
			if getErr != nil {
				return "", fmt.Errorf("%s: %w", op, getErr)
			}
			return conversation.ID, nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	conversation := models.Conversation{
		ID:             id,
		ParticipantsId: participantsId,
		IsGroup:        isGroup,
		GroupName:      groupName,
		GroupImageUrl:  groupImageUrl,
		AdminId:        adminId,
	}
	if err = s.cache.SaveConversation(ctx, conversation); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to cache conversation", zap.Error(err))
	}

	return id, nil
}

func (s *Service) KickParticipant(ctx context.Context, identity *models.Identity, conversationId, userId string) error {
	const op = "service.KickParticipant"

	if identity == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if conversationId == "" || userId == "" {
		return fmt.Errorf("%s: %w: conversation id and user id are required", op, ErrValidation)
	}

	if err := s.storage.RemoveParticipant(ctx, conversationId, userId); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.DeleteConversation(ctx, conversationId); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to invalidate conversation cache", zap.Error(err))
	}

	return nil
}

// DeleteConversation cascades over the conversation's messages. Blob
// deletion is best-effort per message; a failed blob delete never
// stops the record cleanup.
func (s *Service) DeleteConversation(
	ctx context.Context,
	identity *models.Identity,
	conversationId string,
) (DeleteSummary, error) {
	const op = "service.DeleteConversation"

	if identity == nil {
		return DeleteSummary{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	messages, err := s.storage.GetConversationMessages(ctx, conversationId)
	if err != nil {
		return DeleteSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	var summary DeleteSummary
	for _, message := range messages {
		if !message.Type.IsBlob() {
			continue
		}

		if err = s.blobs.DeleteBlob(ctx, message.Content); err != nil {
			logger.GetFromCtx(ctx).Error(ctx, "failed to delete message blob",
				zap.String("message_id", message.ID),
				zap.String("blob_id", message.Content),
				zap.String("message_type", string(message.Type)),
				zap.Error(err),
			)
			summary.BlobsFailed++
			continue
		}
		summary.BlobsDeleted++
	}

	summary.MessagesDeleted, err = s.storage.DeleteConversationMessages(ctx, conversationId)
	if err != nil {
		return DeleteSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.storage.DeleteConversation(ctx, conversationId); err != nil {
		return DeleteSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.DeleteConversation(ctx, conversationId); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to invalidate conversation cache", zap.Error(err))
	}

	return summary, nil
}

// ListMemberUsers is a tolerant read: a missing identity or a missing
// conversation yields an empty list, not an error.
func (s *Service) ListMemberUsers(ctx context.Context, identity *models.Identity, conversationId string) ([]models.User, error) {
	const op = "service.ListMemberUsers"

	if identity == nil {
		return []models.User{}, nil
	}

	conversation, err := s.getConversation(ctx, conversationId)
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotFound) {
			return []models.User{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := s.storage.GetUsers(ctx, conversation.ParticipantsId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if users == nil {
		users = []models.User{}
	}

	return users, nil
}

func validateParticipants(participantsId []string, isGroup bool) error {
	if len(participantsId) == 0 {
		return fmt.Errorf("%w: participants list is empty", ErrValidation)
	}

	seen := make(map[string]struct{}, len(participantsId))
	for _, id := range participantsId {
		if id == "" {
			return fmt.Errorf("%w: empty participant id", ErrValidation)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate participant %s", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	if !isGroup && len(participantsId) != 2 {
		return fmt.Errorf("%w: one-to-one conversation needs exactly two participants", ErrValidation)
	}

	return nil
}
