package middlewares

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

// Allowed content types and the extension stored objects get.
var mediaExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// MediaValidationMiddleware checks the uploaded media files, up to MAX_MEDIA_PER_POST
// images (5MB each) or videos (50MB each), and stores them as []types.MediaBlob in the
// context. Requests without a multipart body carry no media.
func MediaValidationMiddleware(logger tools.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Set(types.CONTEXT_MEDIA_BLOBS_KEY, []types.MediaBlob{})
			c.Next()
			return
		}

		// Get the multipart form data from the request
		form, err := c.MultipartForm()
		if err != nil {
			tools.LogError(logger, c, fmt.Errorf("%w: invalid multipart form: %v", types.ErrInvalidArgument, err))
			return
		}

		files := form.File[types.MEDIA_FORM_FIELD]
		if len(files) > types.MAX_MEDIA_PER_POST {
			tools.LogError(logger, c, fmt.Errorf("%w: at most %d media files per post", types.ErrInvalidArgument, types.MAX_MEDIA_PER_POST))
			return
		}

		blobs := make([]types.MediaBlob, 0, len(files))
		var opened []multipart.File
		defer func() {
			for _, f := range opened {
				f.Close()
			}
		}()

		for _, file := range files {
			f, blob, err := validateMediaFile(file)
			if f != nil {
				opened = append(opened, f)
			}
			if err != nil {
				tools.LogError(logger, c, err)
				return
			}

			blob, err = tools.NormalizeImageOrientation(logger, blob)
			if err != nil {
				tools.LogError(logger, c, err)
				return
			}
			blobs = append(blobs, blob)
		}

		c.Set(types.CONTEXT_MEDIA_BLOBS_KEY, blobs)
		c.Next()
	}
}

// MediaBlobs returns the files MediaValidationMiddleware accepted.
func MediaBlobs(c *gin.Context) []types.MediaBlob {
	blobs, _ := c.Get(types.CONTEXT_MEDIA_BLOBS_KEY)
	typed, _ := blobs.([]types.MediaBlob)
	return typed
}

func validateMediaFile(file *multipart.FileHeader) (multipart.File, types.MediaBlob, error) {
	if file.Size > types.MAX_VIDEO_SIZE_BYTES {
		return nil, types.MediaBlob{}, fmt.Errorf("%w: file %s too large: maximum size 50MB", types.ErrInvalidArgument, file.Filename)
	}

	f, err := file.Open()
	if err != nil {
		return nil, types.MediaBlob{}, fmt.Errorf("%w: error opening file: %v", types.ErrInvalidArgument, err)
	}

	// Read only the first 512 bytes to detect content type
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return f, types.MediaBlob{}, fmt.Errorf("%w: error reading file: %v", types.ErrInvalidArgument, err)
	}

	contentType := http.DetectContentType(buf[:n])
	extension, ok := mediaExtensions[contentType]
	if !ok {
		return f, types.MediaBlob{}, fmt.Errorf("%w: unsupported file type: %s", types.ErrInvalidArgument, contentType)
	}
	if strings.HasPrefix(contentType, "image/") && file.Size > types.MAX_IMAGE_SIZE_BYTES {
		return f, types.MediaBlob{}, fmt.Errorf("%w: image %s too large: maximum size 5MB", types.ErrInvalidArgument, file.Filename)
	}

	// Reset file pointer to the beginning of the file for the upload
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return f, types.MediaBlob{}, fmt.Errorf("error seeking file: %w", err)
	}

	return f, types.MediaBlob{
		File:        f,
		Name:        file.Filename,
		Extension:   extension,
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}
