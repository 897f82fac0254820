package models

import "time"

type User struct {
	ID              string
	TokenIdentifier string
	Name            string
	Email           string
	ImageUrl        string
	IsOnline        bool
	CreatedAt       time.Time
}

type Conversation struct {
	ID             string
	ParticipantsId []string
	IsGroup        bool
	GroupName      string
	GroupImageUrl  string
	AdminId        string
	CreatedAt      time.Time
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageFile  MessageType = "file"
	MessageAudio MessageType = "audio"
	MessageVoice MessageType = "voice"
)

// IsValid reports whether t is one of the known message types.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageFile, MessageAudio, MessageVoice:
		return true
	}
	return false
}

// IsBlob reports whether messages of this type carry a blob reference
// in Content instead of literal text.
func (t MessageType) IsBlob() bool {
	return t.IsValid() && t != MessageText
}

type Message struct {
	ID             string
	ConversationId string
	SenderId       string
	Type           MessageType
	Content        string
	FileName       string
	CreatedAt      time.Time
}

// ConversationView is one entry of the "my conversations" listing.
// Counterpart fields are kept separate from the conversation record so
// the conversation id stays canonical no matter what the counterpart
// user looks like.
type ConversationView struct {
	Conversation
	CounterpartName     string
	CounterpartImageUrl string
	CounterpartOnline   bool
	LastMessage         *Message
}

// UploadTarget is a single-use presigned upload slot issued by the
// blob store.
type UploadTarget struct {
	BlobId    string
	UploadUrl string
	ExpiresAt time.Time
}

// Identity is the caller identity resolved once at the request
// boundary from the auth token claims.
type Identity struct {
	TokenIdentifier string
	Name            string
	Email           string
	ImageUrl        string
}
