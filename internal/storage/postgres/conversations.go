package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (s *Storage) SaveConversation(
	ctx context.Context,
	id string,
	participantsId []string,
	participantsKey string,
	isGroup bool,
	groupName string,
	groupImageUrl string,
	adminId string,
) error {
	const op = "storage.postgres.SaveConversation"

	sql := `INSERT INTO chat.conversations
			(id, participants_id, participants_key, is_group, group_name, group_image_url, admin_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, sql, id, participantsId, participantsKey, isGroup, groupName, groupImageUrl, adminId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return fmt.Errorf("%s: %w", op, storage.ErrConversationExists)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	const op = "storage.postgres.GetConversation"

	var conversation models.Conversation
	sql := `SELECT id, participants_id, is_group, group_name, group_image_url, admin_id, created_at
			FROM chat.conversations
			WHERE id = $1`
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&conversation.ID,
		&conversation.ParticipantsId,
		&conversation.IsGroup,
		&conversation.GroupName,
		&conversation.GroupImageUrl,
		&conversation.AdminId,
		&conversation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Conversation{}, fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
		}
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	return conversation, nil
}

// GetDirectConversation looks a one-to-one conversation up by its
// canonical participant key, so [a,b] and [b,a] resolve to the same
// record.
func (s *Storage) GetDirectConversation(ctx context.Context, participantsKey string) (models.Conversation, error) {
	const op = "storage.postgres.GetDirectConversation"

	var conversation models.Conversation
	sql := `SELECT id, participants_id, is_group, group_name, group_image_url, admin_id, created_at
			FROM chat.conversations
			WHERE participants_key = $1 AND is_group = false`
	err := s.db.QueryRow(ctx, sql, participantsKey).Scan(
		&conversation.ID,
		&conversation.ParticipantsId,
		&conversation.IsGroup,
		&conversation.GroupName,
		&conversation.GroupImageUrl,
		&conversation.AdminId,
		&conversation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Conversation{}, fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
		}
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	return conversation, nil
}

func (s *Storage) GetUserConversations(ctx context.Context, userId string) ([]models.Conversation, error) {
	const op = "storage.postgres.GetUserConversations"

	sql := `SELECT id, participants_id, is_group, group_name, group_image_url, admin_id, created_at
			FROM chat.conversations
			WHERE $1 = ANY(participants_id)`
	rows, err := s.db.Query(ctx, sql, userId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conversation models.Conversation

		err = rows.Scan(
			&conversation.ID,
			&conversation.ParticipantsId,
			&conversation.IsGroup,
			&conversation.GroupName,
			&conversation.GroupImageUrl,
			&conversation.AdminId,
			&conversation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

func (s *Storage) RemoveParticipant(ctx context.Context, conversationId, userId string) error {
	const op = "storage.postgres.RemoveParticipant"

	sql := `UPDATE chat.conversations
			SET participants_id = array_remove(participants_id, $1)
			WHERE id = $2`
	tag, err := s.db.Exec(ctx, sql, userId, conversationId)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
	}

	return nil
}

func (s *Storage) DeleteConversation(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteConversation"

	sql := "DELETE FROM chat.conversations WHERE id = $1"
	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
	}

	return nil
}
