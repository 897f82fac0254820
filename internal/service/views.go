package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
)

// MyConversations assembles the caller's conversation list. One-to-one
// entries carry the counterpart's current display fields, every entry
// carries its latest message when one exists. The conversation record
// stays canonical: counterpart data lives in dedicated view fields and
// can never shadow the conversation id.
func (s *Service) MyConversations(ctx context.Context, identity *models.Identity) ([]models.ConversationView, error) {
	const op = "service.MyConversations"

	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := s.storage.GetUserByToken(ctx, identity.TokenIdentifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conversations, err := s.storage.GetUserConversations(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]models.ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		view := models.ConversationView{Conversation: conversation}

		if !conversation.IsGroup {
			counterpart, err := s.counterpartUser(ctx, conversation, user.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if counterpart != nil {
				view.CounterpartName = counterpart.Name
				view.CounterpartImageUrl = counterpart.ImageUrl
				view.CounterpartOnline = counterpart.IsOnline
			}
		}

		view.LastMessage, err = s.LatestMessage(ctx, conversation.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		views = append(views, view)
	}

	return views, nil
}

// counterpartUser resolves the other participant of a one-to-one
// conversation. A dangling participant id is not an error, the view is
// just left without counterpart details.
func (s *Service) counterpartUser(
	ctx context.Context,
	conversation models.Conversation,
	selfId string,
) (*models.User, error) {
	var otherId string
	for _, id := range conversation.ParticipantsId {
		if id != selfId {
			otherId = id
			break
		}
	}
	if otherId == "" {
		return nil, nil
	}

	users, err := s.storage.GetUsers(ctx, []string{otherId})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	return &users[0], nil
}
