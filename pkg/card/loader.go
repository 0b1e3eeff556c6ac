// loader.go — Load cards from card.json files and .ayatcard (ZIP) bundles.
package card

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BundleExt is the file extension of a zipped card bundle.
const BundleExt = ".ayatcard"

// Parse decodes a card document. Fields missing from data keep the value
// from Default(), so a document only needs to list what it changes.
func Parse(data []byte) (Card, error) {
	c, err := Merge(Default(), data)
	if err != nil {
		return Card{}, fmt.Errorf("parse card: %w", err)
	}
	return c, nil
}

// ParseFile reads and decodes a standalone card JSON file. A relative
// background image path is resolved against the file's directory.
func ParseFile(path string) (Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, fmt.Errorf("read card: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Card{}, err
	}
	c.Background.Image = resolveAssetPath(c.Background.Image, filepath.Dir(path))
	return c, nil
}

// Load opens path as a bundle or a JSON file depending on its extension.
// The returned cleanup function removes any extracted files.
func Load(path string) (Card, func(), error) {
	if strings.EqualFold(filepath.Ext(path), BundleExt) {
		return LoadBundle(path)
	}
	c, err := ParseFile(path)
	return c, func() {}, err
}

// LoadBundle opens a .ayatcard ZIP, extracts it to a temp directory,
// parses card.json and resolves the background image inside the bundle.
// The returned cleanup function removes the temp directory.
func LoadBundle(path string) (Card, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return Card{}, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "ayatcard-*")
	if err != nil {
		return Card{}, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(r, tmpDir); err != nil {
		cleanup()
		return Card{}, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	c, err := ParseFile(filepath.Join(tmpDir, "card.json"))
	if err != nil {
		cleanup()
		return Card{}, noop, err
	}
	return c, cleanup, nil
}

// ExampleJSON returns the default card as indented JSON for `ayatcard init`.
func ExampleJSON() string {
	data, _ := json.MarshalIndent(Default(), "", "  ")
	return string(data)
}

// resolveAssetPath makes a relative file reference absolute using baseDir.
// Data URLs, URLs and absolute paths are returned unchanged.
func resolveAssetPath(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "data:") || strings.Contains(p, "://") {
		return p
	}
	candidate := filepath.Join(baseDir, p)
	if _, err := os.Stat(candidate); err != nil {
		// Not a file next to the card; probably an asset id.
		return p
	}
	return candidate
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.ReadCloser, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
