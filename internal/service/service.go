package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/AlexMickh/speak-messenger/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("caller identity is not presented")
	ErrValidation      = errors.New("invalid argument")
	ErrBlobStore       = errors.New("blob store failure")
)

type Storage interface {
	SaveUser(
		ctx context.Context,
		id string,
		tokenIdentifier string,
		name string,
		email string,
		imageUrl string,
	) error
	GetUserByToken(ctx context.Context, tokenIdentifier string) (models.User, error)
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	GetOtherUsers(ctx context.Context, userId string) ([]models.User, error)
	SetOnline(ctx context.Context, tokenIdentifier string, online bool) error
	UpdateUserProfile(
		ctx context.Context,
		tokenIdentifier string,
		name string,
		imageUrl string,
	) error
	DeleteDuplicateUsers(ctx context.Context, tokenIdentifier string) (int64, error)
	SaveConversation(
		ctx context.Context,
		id string,
		participantsId []string,
		participantsKey string,
		isGroup bool,
		groupName string,
		groupImageUrl string,
		adminId string,
	) error
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	GetDirectConversation(ctx context.Context, participantsKey string) (models.Conversation, error)
	GetUserConversations(ctx context.Context, userId string) ([]models.Conversation, error)
	RemoveParticipant(ctx context.Context, conversationId, userId string) error
	DeleteConversation(ctx context.Context, id string) error
	SaveMessage(
		ctx context.Context,
		id string,
		conversationId string,
		senderId string,
		messageType models.MessageType,
		content string,
		fileName string,
	) error
	GetLastMessage(ctx context.Context, conversationId string) (models.Message, error)
	GetConversationMessages(ctx context.Context, conversationId string) ([]models.Message, error)
	DeleteConversationMessages(ctx context.Context, conversationId string) (int64, error)
}

type Cache interface {
	SaveConversation(ctx context.Context, conversation models.Conversation) error
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

type BlobStore interface {
	RequestUpload(ctx context.Context) (models.UploadTarget, error)
	GetUrl(ctx context.Context, blobId string) (string, error)
	CheckBlob(ctx context.Context, blobId string) error
	DeleteBlob(ctx context.Context, blobId string) error
}

type Service struct {
	storage Storage
	cache   Cache
	blobs   BlobStore
}

func New(storage Storage, cache Cache, blobs BlobStore) *Service {
	return &Service{
		storage: storage,
		cache:   cache,
		blobs:   blobs,
	}
}

// RequestUploadTarget issues a single-use upload slot in the blob store.
func (s *Service) RequestUploadTarget(ctx context.Context, identity *models.Identity) (models.UploadTarget, error) {
	const op = "service.RequestUploadTarget"

	if identity == nil {
		return models.UploadTarget{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	target, err := s.blobs.RequestUpload(ctx)
	if err != nil {
		return models.UploadTarget{}, fmt.Errorf("%s: %w: %w", op, ErrBlobStore, err)
	}

	return target, nil
}

// participantsKey canonicalizes a participant set so [a,b] and [b,a]
// map to the same key.
func participantsKey(participantsId []string) string {
	ids := make([]string, len(participantsId))
	copy(ids, participantsId)
	sort.Strings(ids)

	return strings.Join(ids, ",")
}

// getConversation reads through the cache, falling back to the
// database and backfilling the cache on a miss.
func (s *Service) getConversation(ctx context.Context, id string) (models.Conversation, error) {
	const op = "service.getConversation"

	conversation, err := s.cache.GetConversation(ctx, id)
	if err == nil {
		return conversation, nil
	}

	conversation, err = s.storage.GetConversation(ctx, id)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.cache.SaveConversation(ctx, conversation); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to cache conversation", zap.Error(err))
	}

	return conversation, nil
}

// IsNotFound reports whether err is one of the storage not-found
// sentinels, so the transport layer can map it without knowing which
// entity was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrUserNotFound) ||
		errors.Is(err, storage.ErrConversationNotFound) ||
		errors.Is(err, storage.ErrMessageNotFound)
}
