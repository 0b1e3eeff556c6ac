// assets.go — In-memory store for uploaded and generated images.
package server

import (
	"fmt"
	"image"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/render"
)

// assetPrefix is the URL path under which assets are served. Card
// references may use the bare id or this path.
const assetPrefix = "/api/assets/"

type asset struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Mime    string    `json:"mime"`
	Size    int       `json:"size"`
	Created time.Time `json:"created"`
	data    []byte
}

// assetManager keeps assets for the lifetime of the server. It is the
// rasterizer's image source for asset references.
type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte, mimeType string) *asset {
	a := &asset{
		ID:      uuid.NewString(),
		Name:    name,
		Mime:    mimeType,
		Size:    len(data),
		Created: time.Now(),
		data:    data,
	}
	am.mu.Lock()
	am.assets[a.ID] = a
	am.mu.Unlock()
	return a
}

// store keeps a generated image and returns its card reference.
func (am *assetManager) store(img genai.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("generated image is empty")
	}
	a := am.add("generated"+extensionForMime(img.MIME), img.Data, img.MIME)
	return a.ID, nil
}

func (am *assetManager) get(ref string) (*asset, bool) {
	id := strings.TrimPrefix(ref, assetPrefix)
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

func (am *assetManager) list() []asset {
	am.mu.RLock()
	out := make([]asset, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, *a)
	}
	am.mu.RUnlock()
	slices.SortFunc(out, func(a, b asset) int { return a.Created.Compare(b.Created) })
	return out
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

// Image implements render.ImageSource.
func (am *assetManager) Image(ref string) (image.Image, error) {
	a, ok := am.get(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrUnknownImage, ref)
	}
	return render.DecodeImage(a.data)
}

// ── Helpers ──

func mimeForName(name string) string {
	if m := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); m != "" {
		return m
	}
	return "application/octet-stream"
}

func extensionForMime(m string) string {
	switch {
	case strings.Contains(m, "png"):
		return ".png"
	case strings.Contains(m, "jpeg"), strings.Contains(m, "jpg"):
		return ".jpg"
	case strings.Contains(m, "webp"):
		return ".webp"
	case strings.Contains(m, "gif"):
		return ".gif"
	default:
		return ""
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" {
		return "asset"
	}
	return name
}
