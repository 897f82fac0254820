package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
)

// fakeStorage mirrors the database semantics closely enough for the
// service tests: token uniqueness on users, canonical-key uniqueness
// on one-to-one conversations, newest-first last message.
type fakeStorage struct {
	users         map[string]models.User
	conversations map[string]models.Conversation
	messages      map[string]models.Message

	// saveConversationHook runs at the start of SaveConversation, used
	// to simulate a concurrent insert winning the check-then-insert
	// race.
	saveConversationHook func()

	now time.Time
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:         make(map[string]models.User),
		conversations: make(map[string]models.Conversation),
		messages:      make(map[string]models.Message),
		now:           time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStorage) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeStorage) SaveUser(_ context.Context, id, tokenIdentifier, name, email, imageUrl string) error {
	for _, user := range f.users {
		if user.TokenIdentifier == tokenIdentifier {
			return storage.ErrUserAlreadyExists
		}
	}

	f.users[id] = models.User{
		ID:              id,
		TokenIdentifier: tokenIdentifier,
		Name:            name,
		Email:           email,
		ImageUrl:        imageUrl,
		IsOnline:        true,
		CreatedAt:       f.tick(),
	}

	return nil
}

// addUser bypasses the uniqueness check, used to seed the duplicates
// the reconcile operation exists for.
func (f *fakeStorage) addUser(user models.User) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = f.tick()
	}
	f.users[user.ID] = user
}

func (f *fakeStorage) GetUserByToken(_ context.Context, tokenIdentifier string) (models.User, error) {
	var found models.User
	var ok bool
	for _, user := range f.users {
		if user.TokenIdentifier != tokenIdentifier {
			continue
		}
		if !ok || user.CreatedAt.After(found.CreatedAt) {
			found = user
			ok = true
		}
	}
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return found, nil
}

func (f *fakeStorage) GetUsers(_ context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			users = append(users, user)
		}
	}
	sortUsers(users)

	return users, nil
}

func (f *fakeStorage) GetOtherUsers(_ context.Context, userId string) ([]models.User, error) {
	var users []models.User
	for _, user := range f.users {
		if user.ID != userId {
			users = append(users, user)
		}
	}
	sortUsers(users)

	return users, nil
}

func (f *fakeStorage) SetOnline(_ context.Context, tokenIdentifier string, online bool) error {
	updated := false
	for id, user := range f.users {
		if user.TokenIdentifier == tokenIdentifier {
			user.IsOnline = online
			f.users[id] = user
			updated = true
		}
	}
	if !updated {
		return storage.ErrUserNotFound
	}

	return nil
}

func (f *fakeStorage) UpdateUserProfile(_ context.Context, tokenIdentifier, name, imageUrl string) error {
	updated := false
	for id, user := range f.users {
		if user.TokenIdentifier != tokenIdentifier {
			continue
		}
		if name != "" {
			user.Name = name
		}
		if imageUrl != "" {
			user.ImageUrl = imageUrl
		}
		f.users[id] = user
		updated = true
	}
	if !updated {
		return storage.ErrUserNotFound
	}

	return nil
}

func (f *fakeStorage) DeleteDuplicateUsers(_ context.Context, tokenIdentifier string) (int64, error) {
	newest, err := f.GetUserByToken(context.Background(), tokenIdentifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var removed int64
	for id, user := range f.users {
		if user.TokenIdentifier == tokenIdentifier && id != newest.ID {
			delete(f.users, id)
			removed++
		}
	}

	return removed, nil
}

func (f *fakeStorage) SaveConversation(
	_ context.Context,
	id string,
	participantsId []string,
	participantsKey string,
	isGroup bool,
	groupName string,
	groupImageUrl string,
	adminId string,
) error {
	if f.saveConversationHook != nil {
		f.saveConversationHook()
	}

	if !isGroup {
		for _, conversation := range f.conversations {
			if !conversation.IsGroup && conversationKey(conversation) == participantsKey {
				return storage.ErrConversationExists
			}
		}
	}

	f.conversations[id] = models.Conversation{
		ID:             id,
		ParticipantsId: participantsId,
		IsGroup:        isGroup,
		GroupName:      groupName,
		GroupImageUrl:  groupImageUrl,
		AdminId:        adminId,
		CreatedAt:      f.tick(),
	}

	return nil
}

func (f *fakeStorage) GetConversation(_ context.Context, id string) (models.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok {
		return models.Conversation{}, storage.ErrConversationNotFound
	}

	return conversation, nil
}

func (f *fakeStorage) GetDirectConversation(_ context.Context, participantsKey string) (models.Conversation, error) {
	for _, conversation := range f.conversations {
		if !conversation.IsGroup && conversationKey(conversation) == participantsKey {
			return conversation, nil
		}
	}

	return models.Conversation{}, storage.ErrConversationNotFound
}

func (f *fakeStorage) GetUserConversations(_ context.Context, userId string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	for _, conversation := range f.conversations {
		for _, id := range conversation.ParticipantsId {
			if id == userId {
				conversations = append(conversations, conversation)
				break
			}
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt)
	})

	return conversations, nil
}

func (f *fakeStorage) RemoveParticipant(_ context.Context, conversationId, userId string) error {
	conversation, ok := f.conversations[conversationId]
	if !ok {
		return storage.ErrConversationNotFound
	}

	participants := conversation.ParticipantsId[:0:0]
	for _, id := range conversation.ParticipantsId {
		if id != userId {
			participants = append(participants, id)
		}
	}
	conversation.ParticipantsId = participants
	f.conversations[conversationId] = conversation

	return nil
}

func (f *fakeStorage) DeleteConversation(_ context.Context, id string) error {
	if _, ok := f.conversations[id]; !ok {
		return storage.ErrConversationNotFound
	}
	delete(f.conversations, id)

	return nil
}

func (f *fakeStorage) SaveMessage(
	_ context.Context,
	id string,
	conversationId string,
	senderId string,
	messageType models.MessageType,
	content string,
	fileName string,
) error {
	if _, ok := f.conversations[conversationId]; !ok {
		return storage.ErrConversationNotFound
	}

	f.messages[id] = models.Message{
		ID:             id,
		ConversationId: conversationId,
		SenderId:       senderId,
		Type:           messageType,
		Content:        content,
		FileName:       fileName,
		CreatedAt:      f.tick(),
	}

	return nil
}

func (f *fakeStorage) GetLastMessage(_ context.Context, conversationId string) (models.Message, error) {
	var last models.Message
	var ok bool
	for _, message := range f.messages {
		if message.ConversationId != conversationId {
			continue
		}
		if !ok || message.CreatedAt.After(last.CreatedAt) {
			last = message
			ok = true
		}
	}
	if !ok {
		return models.Message{}, storage.ErrMessageNotFound
	}

	return last, nil
}

func (f *fakeStorage) GetConversationMessages(_ context.Context, conversationId string) ([]models.Message, error) {
	var messages []models.Message
	for _, message := range f.messages {
		if message.ConversationId == conversationId {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

func (f *fakeStorage) DeleteConversationMessages(_ context.Context, conversationId string) (int64, error) {
	var removed int64
	for id, message := range f.messages {
		if message.ConversationId == conversationId {
			delete(f.messages, id)
			removed++
		}
	}

	return removed, nil
}

func conversationKey(conversation models.Conversation) string {
	return participantsKey(conversation.ParticipantsId)
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
}

type fakeCache struct {
	conversations map[string]models.Conversation
	saveErr       error
}

func newFakeCache() *fakeCache {
	return &fakeCache{conversations: make(map[string]models.Conversation)}
}

func (f *fakeCache) SaveConversation(_ context.Context, conversation models.Conversation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.conversations[conversation.ID] = conversation

	return nil
}

func (f *fakeCache) GetConversation(_ context.Context, id string) (models.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok {
		return models.Conversation{}, storage.ErrConversationNotFound
	}

	return conversation, nil
}

func (f *fakeCache) DeleteConversation(_ context.Context, id string) error {
	delete(f.conversations, id)

	return nil
}

type fakeBlobs struct {
	blobs     map[string]struct{}
	deleted   []string
	deleteErr map[string]error
	urlErr    error
}

func newFakeBlobs(ids ...string) *fakeBlobs {
	blobs := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		blobs[id] = struct{}{}
	}

	return &fakeBlobs{
		blobs:     blobs,
		deleteErr: make(map[string]error),
	}
}

func (f *fakeBlobs) RequestUpload(_ context.Context) (models.UploadTarget, error) {
	if f.urlErr != nil {
		return models.UploadTarget{}, f.urlErr
	}

	return models.UploadTarget{
		BlobId:    "blob-upload",
		UploadUrl: "https://blobs.local/upload/blob-upload",
	}, nil
}

func (f *fakeBlobs) GetUrl(_ context.Context, blobId string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	if _, ok := f.blobs[blobId]; !ok {
		return "", storage.ErrBlobNotFound
	}

	return "https://blobs.local/" + blobId, nil
}

func (f *fakeBlobs) CheckBlob(_ context.Context, blobId string) error {
	if _, ok := f.blobs[blobId]; !ok {
		return storage.ErrBlobNotFound
	}

	return nil
}

func (f *fakeBlobs) DeleteBlob(_ context.Context, blobId string) error {
	if err, ok := f.deleteErr[blobId]; ok {
		return err
	}
	delete(f.blobs, blobId)
	f.deleted = append(f.deleted, blobId)

	return nil
}
