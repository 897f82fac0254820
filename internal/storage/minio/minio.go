package minio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/AlexMickh/speak-messenger/internal/models"
	"github.com/AlexMickh/speak-messenger/internal/storage"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type Client interface {
	PresignedPutObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		expires time.Duration,
	) (u *url.URL, err error)
	PresignedGetObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		expires time.Duration,
		reqParams url.Values,
	) (u *url.URL, err error)
	StatObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		opts minio.StatObjectOptions,
	) (minio.ObjectInfo, error)
	RemoveObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		opts minio.RemoveObjectOptions,
	) error
}

type Minio struct {
	mc         Client
	bucketName string
	expires    time.Duration
}

func New(mc Client, bucketName string, expires time.Duration) *Minio {
	return &Minio{
		mc:         mc,
		bucketName: bucketName,
		expires:    expires,
	}
}

// RequestUpload issues a presigned upload slot. The client PUTs the
// bytes to UploadUrl and then references the blob by BlobId.
func (m *Minio) RequestUpload(ctx context.Context) (models.UploadTarget, error) {
	const op = "storage.minio.RequestUpload"

	blobId := uuid.NewString()

	url, err := m.mc.PresignedPutObject(ctx, m.bucketName, blobId, m.expires)
	if err != nil {
		return models.UploadTarget{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.UploadTarget{
		BlobId:    blobId,
		UploadUrl: url.String(),
		ExpiresAt: time.Now().Add(m.expires),
	}, nil
}

func (m *Minio) GetUrl(ctx context.Context, blobId string) (string, error) {
	const op = "storage.minio.GetUrl"

	url, err := m.mc.PresignedGetObject(ctx, m.bucketName, blobId, m.expires, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url.String(), nil
}

// CheckBlob verifies the reference points at a stored object.
func (m *Minio) CheckBlob(ctx context.Context, blobId string) error {
	const op = "storage.minio.CheckBlob"

	_, err := m.mc.StatObject(ctx, m.bucketName, blobId, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%s: %w", op, storage.ErrBlobNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Minio) DeleteBlob(ctx context.Context, blobId string) error {
	const op = "storage.minio.DeleteBlob"

	err := m.mc.RemoveObject(ctx, m.bucketName, blobId, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
