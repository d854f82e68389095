package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const avatarPathPrefix = "avatars"

var (
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
)

// MinIOAvatarStore keeps avatars in an S3-compatible bucket and returns the
// object key as the stored avatar URL.
type MinIOAvatarStore struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOAvatarStore(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOAvatarStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	store := &MinIOAvatarStore{client: client, bucketName: bucketName}
	if err := store.ensureBucketExists(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinIOAvatarStore) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

func (s *MinIOAvatarStore) Save(ctx context.Context, fileName string, file io.Reader, size int64, contentType string) (string, error) {
	objectKey := path.Join(avatarPathPrefix, fileName)
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}
