// Package export captures a composed scene as a full-resolution image.
//
// All output follows one pipeline: rasterize the scene at Scale× its
// logical size, then encode it as PNG (or JPEG when asked by extension).
// The preview scale used on screen never influences an export.
package export

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/xob0t/ayatcard/pkg/layout"
)

// Scale is the fixed supersampling factor of every export.
const Scale = 2

// Capturer rasterizes a scene at a pixel scale.
type Capturer interface {
	Capture(s layout.Scene, scale float64) (image.Image, error)
}

// CaptureError reports a failed capture. Callers abort the dependent
// operation and surface the message; it is never fatal.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "capture: " + e.Err.Error() }

func (e *CaptureError) Unwrap() error { return e.Err }

// IsCaptureError reports whether err is a CaptureError.
func IsCaptureError(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}

// Export captures s at Scale with its guides removed. The result is always
// 2×width by 2×height.
func Export(s layout.Scene, c Capturer) (image.Image, error) {
	img, err := c.Capture(s.WithoutGuides(), Scale)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	if img == nil {
		return nil, &CaptureError{Err: errors.New("empty capture")}
	}
	return img, nil
}

// Filename is the download name for an export taken at now.
func Filename(now time.Time) string {
	return "ayat-card-" + strconv.FormatInt(now.UnixMilli(), 10) + ".png"
}

// Encode writes img to w. The format is inferred from ext:
//   - ".png" → PNG (default when ext is empty)
//   - ".jpg", ".jpeg" → JPEG
func Encode(w io.Writer, ext string, img image.Image) error {
	f, err := formatFor(ext)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("encode %s: %w", ext, err)
	}
	return nil
}

// WriteFile encodes img to the file at path, choosing the format by extension.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, filepath.Ext(path), img); err != nil {
		return err
	}
	return f.Close()
}

func formatFor(ext string) (imaging.Format, error) {
	switch strings.ToLower(ext) {
	case "", ".png":
		return imaging.PNG, nil
	case ".jpg", ".jpeg":
		return imaging.JPEG, nil
	default:
		return 0, fmt.Errorf("unsupported format %q: use .png or .jpg", ext)
	}
}
