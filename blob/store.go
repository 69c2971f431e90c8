// Package blob stores post media and hands back the URL clients load it from.
package blob

import (
	"context"
	"strings"

	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
)

type Store interface {
	// Upload writes the blob under a fresh object name and returns its public URL and path.
	Upload(ctx context.Context, blob types.MediaBlob) (types.StoredMedia, error)
	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// DeleteAll removes every path, logging failures instead of returning them.
func DeleteAll(ctx context.Context, store Store, logger tools.Logger, paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := store.Delete(ctx, path); err != nil {
			logger.Log(logging.Entry{
				Severity: logging.Warning,
				Payload:  "Error deleting media blob " + path,
				Labels:   map[string]string{"error": err.Error()},
			})
		}
	}
}

func objectName(extension string) (string, error) {
	name, err := tools.GenerateRandomName()
	if err != nil {
		return "", err
	}
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return types.FIREBASE_STORAGE_MEDIA_FOLDER + name + strings.ToLower(extension), nil
}
