// AngelaMos | 2026
// image.go

package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

var ErrInvalidImage = errors.New("invalid image payload")

type encodedImage struct {
	data      []byte
	extension string
}

// decodePayload accepts "data:image/png;base64,..." or bare base64.
func decodePayload(source string) ([]byte, error) {
	payload := source
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data uri", ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return raw, nil
}

// downscale shrinks images wider than maxWidth, keeping the aspect ratio.
// Narrower images are returned byte for byte.
func downscale(raw []byte, maxWidth uint) (*encodedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	ext := extensionFor(format)

	//nolint:gosec // G115: image widths are far below uint overflow
	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return &encodedImage{data: raw, extension: ext}, nil
	}

	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(&buf, resized, nil)
	default:
		err = png.Encode(&buf, resized)
		ext = "png"
	}
	if err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	return &encodedImage{data: buf.Bytes(), extension: ext}, nil
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}
