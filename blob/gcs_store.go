package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/storage"
)

// GCSStore writes media to a Firebase Storage bucket. Objects carry a download token in
// their metadata so the returned URL works without signed requests.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Upload(ctx context.Context, blob types.MediaBlob) (types.StoredMedia, error) {
	objectName, err := objectName(blob.Extension)
	if err != nil {
		return types.StoredMedia{}, err
	}

	// Generate a download token
	downloadToken, err := tools.GenerateRandomName()
	if err != nil {
		return types.StoredMedia{}, err
	}

	obj := s.client.Bucket(s.bucket).Object(objectName)
	sw := obj.NewWriter(ctx)
	sw.ContentType = blob.ContentType
	sw.Metadata = map[string]string{
		types.FIREBASE_STORAGE_DOWNLOAD_TOKEN_KEY: downloadToken,
	}

	if _, err := io.Copy(sw, blob.File); err != nil {
		sw.Close()
		return types.StoredMedia{}, fmt.Errorf("%w: error writing media to storage: %v", types.ErrUnavailable, err)
	}

	if err := sw.Close(); err != nil {
		return types.StoredMedia{}, fmt.Errorf("%w: error closing storage writer: %v", types.ErrUnavailable, err)
	}

	return types.StoredMedia{
		URL:  fmt.Sprintf(types.FIREBASE_STORAGE_DOWNLOAD_URL_TEMPLATE, s.bucket, url.PathEscape(objectName), downloadToken),
		Path: objectName,
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: error deleting %s: %v", types.ErrUnavailable, path, err)
	}
	return nil
}
