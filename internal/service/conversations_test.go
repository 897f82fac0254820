package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/google/uuid"
)

func TestService_CreateOrGetConversation_Validation(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	u1 := uuid.NewString()
	u2 := uuid.NewString()
	u3 := uuid.NewString()

	type args struct {
		identity       *models.Identity
		participantsId []string
		isGroup        bool
	}

	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name: "no identity",
			args: args{
				identity:       nil,
				participantsId: []string{u1, u2},
			},
			wantErr: ErrUnauthenticated,
		},
		{
			name: "empty participants",
			args: args{
				identity:       identity,
				participantsId: []string{},
			},
			wantErr: ErrValidation,
		},
		{
			name: "duplicate participants",
			args: args{
				identity:       identity,
				participantsId: []string{u1, u1},
			},
			wantErr: ErrValidation,
		},
		{
			name: "one-to-one with three participants",
			args: args{
				identity:       identity,
				participantsId: []string{u1, u2, u3},
				isGroup:        false,
			},
			wantErr: ErrValidation,
		},
		{
			name: "group with one participant is fine",
			args: args{
				identity:       identity,
				participantsId: []string{u1},
				isGroup:        true,
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newFakeStorage(), newFakeCache(), newFakeBlobs())

			_, err := s.CreateOrGetConversation(
				context.Background(),
				tt.args.identity,
				tt.args.participantsId,
				tt.args.isGroup,
				"",
				"",
				"",
			)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Service.CreateOrGetConversation() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateOrGetConversation_Idempotent(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	u1 := uuid.NewString()
	u2 := uuid.NewString()

	s := New(newFakeStorage(), newFakeCache(), newFakeBlobs())

	first, err := s.CreateOrGetConversation(context.Background(), identity, []string{u1, u2}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	second, err := s.CreateOrGetConversation(context.Background(), identity, []string{u1, u2}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}
	if second != first {
		t.Errorf("same order returned new conversation: got %s, want %s", second, first)
	}

	reversed, err := s.CreateOrGetConversation(context.Background(), identity, []string{u2, u1}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}
	if reversed != first {
		t.Errorf("reversed order returned new conversation: got %s, want %s", reversed, first)
	}
}

func TestService_CreateOrGetConversation_LostRace(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	u1 := uuid.NewString()
	u2 := uuid.NewString()

	fs := newFakeStorage()
	s := New(fs, newFakeCache(), newFakeBlobs())

	// Another request inserts the pair between our duplicate check and
	// our insert; the unique key must turn our insert into a lookup.
	existing := uuid.NewString()
	raced := false
	fs.saveConversationHook = func() {
		if raced {
			return
		}
		raced = true
		_ = fs.SaveConversation(
			context.Background(),
			existing,
			[]string{u1, u2},
			participantsKey([]string{u1, u2}),
			false, "", "", "",
		)
	}

	id, err := s.CreateOrGetConversation(context.Background(), identity, []string{u1, u2}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}
	if id != existing {
		t.Errorf("lost race returned %s, want the winner %s", id, existing)
	}
}

func TestService_CreateOrGetConversation_GroupImage(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	u1 := uuid.NewString()
	u2 := uuid.NewString()
	u3 := uuid.NewString()

	fs := newFakeStorage()
	s := New(fs, newFakeCache(), newFakeBlobs("group-avatar"))

	id, err := s.CreateOrGetConversation(
		context.Background(),
		identity,
		[]string{u1, u2, u3},
		true,
		"friends",
		"group-avatar",
		u1,
	)
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	conversation, err := fs.GetConversation(context.Background(), id)
	if err != nil {
		t.Fatalf("fakeStorage.GetConversation() error = %v", err)
	}
	if conversation.GroupImageUrl != "https://blobs.local/group-avatar" {
		t.Errorf("group image url = %q, want resolved blob url", conversation.GroupImageUrl)
	}
	if conversation.AdminId != u1 {
		t.Errorf("admin id = %q, want %q", conversation.AdminId, u1)
	}
}

func TestService_KickParticipant(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	u1 := uuid.NewString()
	u2 := uuid.NewString()
	u3 := uuid.NewString()

	fs := newFakeStorage()
	s := New(fs, newFakeCache(), newFakeBlobs())

	id, err := s.CreateOrGetConversation(context.Background(), identity, []string{u1, u2, u3}, true, "g", "", u1)
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	type args struct {
		identity       *models.Identity
		conversationId string
		userId         string
	}

	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name: "no identity",
			args: args{
				identity:       nil,
				conversationId: id,
				userId:         u2,
			},
			wantErr: ErrUnauthenticated,
		},
		{
			name: "conversation does not exist",
			args: args{
				identity:       identity,
				conversationId: uuid.NewString(),
				userId:         u2,
			},
			wantErr: storage.ErrConversationNotFound,
		},
		{
			name: "good case",
			args: args{
				identity:       identity,
				conversationId: id,
				userId:         u2,
			},
			wantErr: nil,
		},
		{
			name: "kick of absent user is a no-op",
			args: args{
				identity:       identity,
				conversationId: id,
				userId:         u2,
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.KickParticipant(context.Background(), tt.args.identity, tt.args.conversationId, tt.args.userId)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Service.KickParticipant() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	conversation, err := fs.GetConversation(context.Background(), id)
	if err != nil {
		t.Fatalf("fakeStorage.GetConversation() error = %v", err)
	}
	for _, participantId := range conversation.ParticipantsId {
		if participantId == u2 {
			t.Errorf("kicked user %s still in participants %v", u2, conversation.ParticipantsId)
		}
	}
}

func TestService_DeleteConversation_Cascade(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	fs := newFakeStorage()
	blobs := newFakeBlobs("img-1", "voice-1")
	s := New(fs, newFakeCache(), blobs)

	sender := models.User{ID: uuid.NewString(), TokenIdentifier: "token-1"}
	fs.addUser(sender)

	other := uuid.NewString()
	id, err := s.CreateOrGetConversation(context.Background(), identity, []string{sender.ID, other}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	for _, message := range []struct {
		messageType models.MessageType
		content     string
	}{
		{models.MessageText, "hi"},
		{models.MessageImage, "img-1"},
		{models.MessageVoice, "voice-1"},
	} {
		_, err = s.SendMessage(context.Background(), identity, id, message.messageType, message.content, "")
		if err != nil {
			t.Fatalf("Service.SendMessage(%s) error = %v", message.messageType, err)
		}
	}

	summary, err := s.DeleteConversation(context.Background(), identity, id)
	if err != nil {
		t.Fatalf("Service.DeleteConversation() error = %v", err)
	}

	if summary.MessagesDeleted != 3 {
		t.Errorf("messages deleted = %d, want 3", summary.MessagesDeleted)
	}
	if summary.BlobsDeleted != 2 || summary.BlobsFailed != 0 {
		t.Errorf("blobs deleted = %d failed = %d, want 2 and 0", summary.BlobsDeleted, summary.BlobsFailed)
	}

	messages, err := fs.GetConversationMessages(context.Background(), id)
	if err != nil {
		t.Fatalf("fakeStorage.GetConversationMessages() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("conversation still has %d messages after cascade", len(messages))
	}
	if _, err = fs.GetConversation(context.Background(), id); !errors.Is(err, storage.ErrConversationNotFound) {
		t.Errorf("conversation still exists after cascade, err = %v", err)
	}
}

func TestService_DeleteConversation_BlobFailureDoesNotAbort(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	fs := newFakeStorage()
	blobs := newFakeBlobs("ok-blob", "broken-blob")
	blobs.deleteErr["broken-blob"] = errors.New("storage provider said no")
	s := New(fs, newFakeCache(), blobs)

	sender := models.User{ID: uuid.NewString(), TokenIdentifier: "token-1"}
	fs.addUser(sender)

	id, err := s.CreateOrGetConversation(
		context.Background(),
		identity,
		[]string{sender.ID, uuid.NewString()},
		false, "", "", "",
	)
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	if _, err = s.SendMessage(context.Background(), identity, id, models.MessageImage, "broken-blob", ""); err != nil {
		t.Fatalf("Service.SendMessage() error = %v", err)
	}
	if _, err = s.SendMessage(context.Background(), identity, id, models.MessageFile, "ok-blob", "doc.pdf"); err != nil {
		t.Fatalf("Service.SendMessage() error = %v", err)
	}

	summary, err := s.DeleteConversation(context.Background(), identity, id)
	if err != nil {
		t.Fatalf("Service.DeleteConversation() error = %v", err)
	}

	if summary.MessagesDeleted != 2 {
		t.Errorf("messages deleted = %d, want 2", summary.MessagesDeleted)
	}
	if summary.BlobsDeleted != 1 || summary.BlobsFailed != 1 {
		t.Errorf("blobs deleted = %d failed = %d, want 1 and 1", summary.BlobsDeleted, summary.BlobsFailed)
	}
	if _, err = fs.GetConversation(context.Background(), id); !errors.Is(err, storage.ErrConversationNotFound) {
		t.Errorf("conversation survived the cascade, err = %v", err)
	}
}

func TestService_ListMemberUsers(t *testing.T) {
	identity := &models.Identity{TokenIdentifier: "token-1"}
	fs := newFakeStorage()
	s := New(fs, newFakeCache(), newFakeBlobs())

	u1 := models.User{ID: uuid.NewString(), TokenIdentifier: "token-1", Name: "a"}
	u2 := models.User{ID: uuid.NewString(), TokenIdentifier: "token-2", Name: "b"}
	fs.addUser(u1)
	fs.addUser(u2)

	id, err := s.CreateOrGetConversation(context.Background(), identity, []string{u1.ID, u2.ID}, false, "", "", "")
	if err != nil {
		t.Fatalf("Service.CreateOrGetConversation() error = %v", err)
	}

	users, err := s.ListMemberUsers(context.Background(), identity, id)
	if err != nil {
		t.Fatalf("Service.ListMemberUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("member count = %d, want 2", len(users))
	}

	users, err = s.ListMemberUsers(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("Service.ListMemberUsers() without identity error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("unauthenticated member count = %d, want 0", len(users))
	}

	users, err = s.ListMemberUsers(context.Background(), identity, uuid.NewString())
	if err != nil {
		t.Fatalf("Service.ListMemberUsers() for missing conversation error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("missing conversation member count = %d, want 0", len(users))
	}
}

func TestParticipantsKey(t *testing.T) {
	a := "0f0e7a4a-9f65-4f5f-8f9e-0a8c2f4a0001"
	b := "ffeb1c2d-1111-4f5f-8f9e-0a8c2f4a0002"

	if participantsKey([]string{a, b}) != participantsKey([]string{b, a}) {
		t.Error("participantsKey() is order dependent")
	}
	if participantsKey([]string{a, b}) == participantsKey([]string{a, a}) {
		t.Error("participantsKey() collides for different sets")
	}
}
