// images.go — Resolve background image references.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUnknownImage is returned when a reference cannot be resolved.
var ErrUnknownImage = errors.New("unknown image reference")

// ImageSource turns a card's background image reference into pixels.
type ImageSource interface {
	Image(ref string) (image.Image, error)
}

// ImageSourceFunc adapts a function to ImageSource.
type ImageSourceFunc func(ref string) (image.Image, error)

// Image implements ImageSource.
func (f ImageSourceFunc) Image(ref string) (image.Image, error) { return f(ref) }

// DataURLs resolves data URLs only. Servers use it so that card JSON from
// a client cannot name files on the host.
type DataURLs struct{}

// Image implements ImageSource.
func (DataURLs) Image(ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, truncateRef(ref))
	}
	data, err := DecodeDataURL(ref)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

// Files resolves data URLs and local file paths.
type Files struct{}

// Image implements ImageSource.
func (Files) Image(ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "data:") {
		return DataURLs{}.Image(ref)
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return nil, fmt.Errorf("%w: remote images are not fetched: %s", ErrUnknownImage, ref)
	}
	img, err := imaging.Open(ref, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open background image: %w", err)
	}
	return img, nil
}

// Chain tries each source in order and returns the first success.
type Chain []ImageSource

// Image implements ImageSource.
func (c Chain) Image(ref string) (image.Image, error) {
	var errs []error
	for _, s := range c {
		img, err := s.Image(ref)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, ref)
	}
	return nil, errors.Join(errs...)
}

// DecodeImage decodes PNG, JPEG, GIF or WebP data.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeDataURL returns the payload of a base64 "data:" URL.
func DecodeDataURL(ref string) ([]byte, error) {
	_, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasPrefix(ref, "data:") {
		return nil, fmt.Errorf("malformed data URL")
	}
	meta := ref[len("data:") : len(ref)-len(payload)-1]
	if !strings.HasSuffix(meta, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		return []byte(unescaped), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return data, nil
}

// DataURL encodes data as a base64 "data:" URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
