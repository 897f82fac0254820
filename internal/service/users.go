package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/google/uuid"
)

// EnsureUser creates the profile record for a newly seen identity and
// is a no-op when one already exists. Profile fields come from the
// token claims.
func (s *Service) EnsureUser(ctx context.Context, identity *models.Identity) error {
	const op = "service.EnsureUser"

	if identity == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	err := s.storage.SaveUser(
		ctx,
		uuid.NewString(),
		identity.TokenIdentifier,
		identity.Name,
		identity.Email,
		identity.ImageUrl,
	)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetCurrentUser returns nil without an error when the caller is
// unauthenticated or has no record yet.
func (s *Service) GetCurrentUser(ctx context.Context, identity *models.Identity) (*models.User, error) {
	const op = "service.GetCurrentUser"

	if identity == nil {
		return nil, nil
	}

	user, err := s.storage.GetUserByToken(ctx, identity.TokenIdentifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Service) ListOtherUsers(ctx context.Context, identity *models.Identity) ([]models.User, error) {
	const op = "service.ListOtherUsers"

	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := s.storage.GetUserByToken(ctx, identity.TokenIdentifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := s.storage.GetOtherUsers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// SetPresence flips the online flag. It is keyed by the raw token
// identifier because connect/disconnect events are service-initiated.
func (s *Service) SetPresence(ctx context.Context, tokenIdentifier string, online bool) error {
	const op = "service.SetPresence"

	if tokenIdentifier == "" {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if err := s.storage.SetOnline(ctx, tokenIdentifier, online); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, identity *models.Identity, name, imageUrl string) error {
	const op = "service.UpdateProfile"

	if identity == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if name == "" && imageUrl == "" {
		return fmt.Errorf("%s: %w: nothing to update", op, ErrValidation)
	}

	if err := s.storage.UpdateUserProfile(ctx, identity.TokenIdentifier, name, imageUrl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ReconcileDuplicates drops every record for the caller's token except
// the newest one. The unique index prevents new duplicates, this
// cleans up rows inserted before the index existed.
func (s *Service) ReconcileDuplicates(ctx context.Context, identity *models.Identity) (int64, error) {
	const op = "service.ReconcileDuplicates"

	if identity == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	removed, err := s.storage.DeleteDuplicateUsers(ctx, identity.TokenIdentifier)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return removed, nil
}
