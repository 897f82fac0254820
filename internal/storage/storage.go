package storage

import "errors"

var (
	ErrUserNotFound         = errors.New("user with this id does not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrConversationNotFound = errors.New("conversation with this id does not found")
	ErrConversationExists   = errors.New("conversation already exists")
	ErrMessageNotFound      = errors.New("message with this id does not found")
	ErrBlobNotFound         = errors.New("blob with this id does not found")
)
