package tools

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"

	"eldertales_api/types"

	"cloud.google.com/go/logging"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// TryFindExifOrientation reads the EXIF orientation tag and falls back to 1 (upright)
// whenever the data carries no usable tag.
func TryFindExifOrientation(logger Logger, r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Debug,
			Payload:  "No EXIF data, applying default image orientation.",
			Labels:   map[string]string{"error": err.Error()},
		})
		return 1
	}

	orientTag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := orientTag.Int(0)
	if err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Warning,
			Payload:  "Warning reading orientation tag, applying default image orientation.",
			Labels:   map[string]string{"error": err.Error()},
		})
		return 1
	}

	return orientation
}

func CorrectImageOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// NormalizeImageOrientation re-encodes a JPEG upright so clients never have to honour the
// EXIF tag. Other content types pass through untouched.
func NormalizeImageOrientation(logger Logger, blob types.MediaBlob) (types.MediaBlob, error) {
	if blob.ContentType != "image/jpeg" {
		return blob, nil
	}

	data, err := io.ReadAll(blob.File)
	if err != nil {
		return blob, fmt.Errorf("error reading image: %w", err)
	}
	blob.File = bytes.NewReader(data)
	blob.Size = int64(len(data))

	orientation := TryFindExifOrientation(logger, bytes.NewReader(data))
	if orientation <= 1 || orientation > 8 {
		return blob, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return blob, fmt.Errorf("%w: cannot decode image %s: %v", types.ErrInvalidArgument, blob.Name, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, CorrectImageOrientation(img, orientation), imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return blob, fmt.Errorf("error encoding image: %w", err)
	}

	blob.File = bytes.NewReader(buf.Bytes())
	blob.Size = int64(buf.Len())
	return blob, nil
}
