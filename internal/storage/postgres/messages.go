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

func (s *Storage) SaveMessage(
	ctx context.Context,
	id string,
	conversationId string,
	senderId string,
	messageType models.MessageType,
	content string,
	fileName string,
) error {
	const op = "storage.postgres.SaveMessage"

	sql := `INSERT INTO chat.messages
			(id, conversation_id, sender_id, message_type, content, file_name)
			VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.Exec(ctx, sql, id, conversationId, senderId, string(messageType), content, fileName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" {
				return fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetLastMessage(ctx context.Context, conversationId string) (models.Message, error) {
	const op = "storage.postgres.GetLastMessage"

	var message models.Message
	sql := `SELECT id, conversation_id, sender_id, message_type, content, file_name, created_at
			FROM chat.messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT 1`
	err := s.db.QueryRow(ctx, sql, conversationId).Scan(
		&message.ID,
		&message.ConversationId,
		&message.SenderId,
		&message.Type,
		&message.Content,
		&message.FileName,
		&message.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Message{}, fmt.Errorf("%s: %w", op, storage.ErrMessageNotFound)
		}
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	return message, nil
}

func (s *Storage) GetConversationMessages(ctx context.Context, conversationId string) ([]models.Message, error) {
	const op = "storage.postgres.GetConversationMessages"

	sql := `SELECT id, conversation_id, sender_id, message_type, content, file_name, created_at
			FROM chat.messages
			WHERE conversation_id = $1
			ORDER BY created_at ASC`
	rows, err := s.db.Query(ctx, sql, conversationId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message

		err = rows.Scan(
			&message.ID,
			&message.ConversationId,
			&message.SenderId,
			&message.Type,
			&message.Content,
			&message.FileName,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (s *Storage) DeleteConversationMessages(ctx context.Context, conversationId string) (int64, error) {
	const op = "storage.postgres.DeleteConversationMessages"

	sql := "DELETE FROM chat.messages WHERE conversation_id = $1"
	tag, err := s.db.Exec(ctx, sql, conversationId)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
