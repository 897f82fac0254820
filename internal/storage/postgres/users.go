package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (s *Storage) SaveUser(
	ctx context.Context,
	id string,
	tokenIdentifier string,
	name string,
	email string,
	imageUrl string,
) error {
	const op = "storage.postgres.SaveUser"

	sql := `INSERT INTO chat.users
			(id, token_identifier, name, email, image_url, is_online)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (token_identifier) DO NOTHING`
	tag, err := s.db.Exec(ctx, sql, id, tokenIdentifier, name, email, imageUrl)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
	}

	return nil
}

// GetUserByToken returns the newest record for the token so callers see
// a stable profile even while duplicates from the pre-constraint era
// are still around.
func (s *Storage) GetUserByToken(ctx context.Context, tokenIdentifier string) (models.User, error) {
	const op = "storage.postgres.GetUserByToken"

	var user models.User
	sql := `SELECT id, token_identifier, name, email, image_url, is_online, created_at
			FROM chat.users
			WHERE token_identifier = $1
			ORDER BY created_at DESC
			LIMIT 1`
	err := s.db.QueryRow(ctx, sql, tokenIdentifier).Scan(
		&user.ID,
		&user.TokenIdentifier,
		&user.Name,
		&user.Email,
		&user.ImageUrl,
		&user.IsOnline,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	const op = "storage.postgres.GetUsers"

	sql := `SELECT id, token_identifier, name, email, image_url, is_online, created_at
			FROM chat.users
			WHERE id = ANY($1)`
	rows, err := s.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (s *Storage) GetOtherUsers(ctx context.Context, userId string) ([]models.User, error) {
	const op = "storage.postgres.GetOtherUsers"

	sql := `SELECT id, token_identifier, name, email, image_url, is_online, created_at
			FROM chat.users
			WHERE id != $1`
	rows, err := s.db.Query(ctx, sql, userId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (s *Storage) SetOnline(ctx context.Context, tokenIdentifier string, online bool) error {
	const op = "storage.postgres.SetOnline"

	sql := `UPDATE chat.users
			SET is_online = $1
			WHERE token_identifier = $2`
	tag, err := s.db.Exec(ctx, sql, online, tokenIdentifier)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

func (s *Storage) UpdateUserProfile(
	ctx context.Context,
	tokenIdentifier string,
	name string,
	imageUrl string,
) error {
	const op = "storage.postgres.UpdateUserProfile"

	var sb strings.Builder

	sb.WriteString("UPDATE chat.users ")

	counter := 1
	args := make([]any, 0, 3)

	if name != "" {
		sb.WriteString(fmt.Sprintf("SET name = $%d", counter))
		counter++
		args = append(args, name)
	}
	if imageUrl != "" {
		if counter == 1 {
			sb.WriteString(fmt.Sprintf("SET image_url = $%d", counter))
		} else {
			sb.WriteString(fmt.Sprintf(", image_url = $%d", counter))
		}
		counter++
		args = append(args, imageUrl)
	}

	sb.WriteString(fmt.Sprintf(" WHERE token_identifier = $%d", counter))
	args = append(args, tokenIdentifier)

	tag, err := s.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

// DeleteDuplicateUsers removes every record for the token except the
// most recently created one, returning how many rows were dropped.
func (s *Storage) DeleteDuplicateUsers(ctx context.Context, tokenIdentifier string) (int64, error) {
	const op = "storage.postgres.DeleteDuplicateUsers"

	sql := `DELETE FROM chat.users
			WHERE token_identifier = $1
			AND id NOT IN (
				SELECT id FROM chat.users
				WHERE token_identifier = $1
				ORDER BY created_at DESC
				LIMIT 1
			)`
	tag, err := s.db.Exec(ctx, sql, tokenIdentifier)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func scanUsers(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var user models.User

		err := rows.Scan(
			&user.ID,
			&user.TokenIdentifier,
			&user.Name,
			&user.Email,
			&user.ImageUrl,
			&user.IsOnline,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		users = append(users, user)
	}

	return users, rows.Err()
}
