package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"eldertales_api/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient is the part of *minio.Client the store calls, kept narrow for mocking.
type MinioClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStore writes media to an S3-compatible bucket that is readable anonymously.
type MinioStore struct {
	client  MinioClient
	bucket  string
	baseURL string
}

const defaultContentType = "application/octet-stream"

// NewMinioStore connects to endpoint. publicURL overrides the scheme and host used in
// returned URLs, for deployments behind a CDN.
func NewMinioStore(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool, publicURL string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}
	return NewMinioStoreWithClient(client, bucket, publicURL), nil
}

func NewMinioStoreWithClient(client MinioClient, bucket, baseURL string) *MinioStore {
	return &MinioStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *MinioStore) Upload(ctx context.Context, blob types.MediaBlob) (types.StoredMedia, error) {
	objectName, err := objectName(blob.Extension)
	if err != nil {
		return types.StoredMedia{}, err
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	size := blob.Size
	if size <= 0 {
		size = -1
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, blob.File, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return types.StoredMedia{}, fmt.Errorf("%w: error uploading %s: %v", types.ErrUnavailable, objectName, err)
	}

	return types.StoredMedia{
		URL:  s.baseURL + "/" + s.bucket + "/" + objectName,
		Path: objectName,
	}, nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("%w: error deleting %s: %v", types.ErrUnavailable, path, err)
	}
	return nil
}
