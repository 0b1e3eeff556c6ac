// bundle.go — .ayatcard export and import: card.json plus its background.
package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/render"
)

const (
	bundleCard   = "card.json"
	bundleAssets = "assets/"
	maxBundle    = 50 << 20
)

// writeBundle zips c with its background image. Asset ids and data URLs
// are written as files under assets/ and the reference is rewritten to the
// relative path, which card.LoadBundle resolves.
func (s *Server) writeBundle(w io.Writer, c card.Card) error {
	zw := zip.NewWriter(w)

	var data []byte
	var name string
	ref := c.Background.Image
	switch {
	case ref == "":
	case strings.HasPrefix(ref, "data:"):
		d, err := render.DecodeDataURL(ref)
		if err != nil {
			return fmt.Errorf("bundle background: %w", err)
		}
		data, name = d, "background"+extensionForMime(ref[len("data:"):strings.IndexByte(ref, ',')])
	default:
		if a, ok := s.assets.get(ref); ok {
			data, name = a.data, a.ID+extensionForMime(a.Mime)
		}
	}
	if data != nil {
		c = c.WithBackgroundImage(bundleAssets + name)
		aw, err := zw.Create(bundleAssets + name)
		if err != nil {
			return err
		}
		if _, err := aw.Write(data); err != nil {
			return err
		}
	}

	cw, err := zw.Create(bundleCard)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	return zw.Close()
}

// readBundle imports a .ayatcard archive. Every file other than card.json
// becomes an asset; a background reference to one of them is rewritten to
// the new asset id.
func (s *Server) readBundle(data []byte) (card.Card, []asset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return card.Card{}, nil, fmt.Errorf("invalid bundle: %w", err)
	}

	var cardJSON []byte
	files := make(map[string]*asset)
	var imported []asset
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return card.Card{}, nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		fdata, err := io.ReadAll(io.LimitReader(rc, maxBundle))
		rc.Close()
		if err != nil {
			return card.Card{}, nil, fmt.Errorf("read %s: %w", f.Name, err)
		}

		name := path.Clean(f.Name)
		if name == bundleCard {
			cardJSON = fdata
			continue
		}
		a := s.assets.add(sanitizeFilename(name), fdata, mimeForName(name))
		files[name] = a
		imported = append(imported, *a)
	}
	if cardJSON == nil {
		return card.Card{}, nil, fmt.Errorf("invalid bundle: no %s found", bundleCard)
	}

	c, err := card.Parse(cardJSON)
	if err != nil {
		return card.Card{}, nil, err
	}
	if a, ok := files[path.Clean(c.Background.Image)]; ok {
		c = c.WithBackgroundImage(a.ID)
	}
	return c, imported, nil
}
