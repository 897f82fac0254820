package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Client interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Pipeline() redis.Pipeliner
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start int64, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type Redis struct {
	rdb        Client
	expiration time.Duration
}

func New(rdb Client, expiration time.Duration) *Redis {
	return &Redis{
		rdb:        rdb,
		expiration: expiration,
	}
}

func partKey(id string) string {
	return id + "&part"
}

func (r *Redis) SaveConversation(ctx context.Context, conversation models.Conversation) error {
	const op = "storage.redis.SaveConversation"

	pipeline := r.rdb.Pipeline()

	err := pipeline.HSet(ctx, conversation.ID,
		"is_group", strconv.FormatBool(conversation.IsGroup),
		"group_name", conversation.GroupName,
		"group_image_url", conversation.GroupImageUrl,
		"admin_id", conversation.AdminId,
		"created_at", conversation.CreatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = pipeline.Expire(ctx, conversation.ID, r.expiration).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Participants live in their own list so membership reads stay cheap.
	err = pipeline.Del(ctx, partKey(conversation.ID)).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, participantId := range conversation.ParticipantsId {
		err = pipeline.RPush(ctx, partKey(conversation.ID), participantId).Err()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	err = pipeline.Expire(ctx, partKey(conversation.ID), r.expiration).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = pipeline.Exec(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Redis) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	const op = "storage.redis.GetConversation"

	fields, err := r.rdb.HGetAll(ctx, id).Result()
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(fields) == 0 {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, storage.ErrConversationNotFound)
	}

	isGroup, err := strconv.ParseBool(fields["is_group"])
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	conversation := models.Conversation{
		ID:            id,
		IsGroup:       isGroup,
		GroupName:     fields["group_name"],
		GroupImageUrl: fields["group_image_url"],
		AdminId:       fields["admin_id"],
		CreatedAt:     createdAt,
	}

	conversation.ParticipantsId, err = r.rdb.LRange(ctx, partKey(id), 0, -1).Result()
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	err = r.rdb.Expire(ctx, id, r.expiration).Err()
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}

	return conversation, nil
}

func (r *Redis) DeleteConversation(ctx context.Context, id string) error {
	const op = "storage.redis.DeleteConversation"

	err := r.rdb.Del(ctx, id, partKey(id)).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
