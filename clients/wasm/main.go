//go:build js && wasm

// AyatCard WASM — client-side compositor and rasterizer.
// Compiled with: GOOS=js GOARCH=wasm go build -o ayatcard.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"syscall/js"
	"time"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/export"
	"github.com/xob0t/ayatcard/pkg/layout"
	"github.com/xob0t/ayatcard/pkg/render"
)

// In-memory asset store (replaces the server-side asset manager).
var (
	assetsMu sync.RWMutex
	assets   = make(map[string][]byte)
)

var raster = render.NewRasterizer(nil, render.Chain{render.ImageSourceFunc(resolveAsset), render.Files{}}, nil)

func main() {
	fmt.Println("AyatCard WASM loaded")

	js.Global().Set("goComposeScene", js.FuncOf(composeScene))
	js.Global().Set("goRenderCard", js.FuncOf(renderCard))
	js.Global().Set("goExportCard", js.FuncOf(exportCard))
	js.Global().Set("goApplyTheme", js.FuncOf(applyTheme))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func resolveAsset(id string) (image.Image, error) {
	assetsMu.RLock()
	data, ok := assets[id]
	assetsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrUnknownImage, id)
	}
	return render.DecodeImage(data)
}

func errorValue(format string, args ...any) js.Value {
	return js.ValueOf("error: " + fmt.Sprintf(format, args...))
}

func parseCard(args []js.Value) (card.Card, error) {
	if len(args) < 1 {
		return card.Card{}, fmt.Errorf("need cardJSON")
	}
	return card.Parse([]byte(args[0].String()))
}

func boolArg(args []js.Value, i int) bool {
	return len(args) > i && args[i].Truthy()
}

// goRegisterAsset(id, base64Data) — store an image in Go memory.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorValue("need id, base64Data")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return errorValue("invalid base64: %v", err)
	}
	assetsMu.Lock()
	assets[args[0].String()] = data
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goRemoveAsset(id) — remove an image from Go memory.
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue("need id")
	}
	assetsMu.Lock()
	delete(assets, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goComposeScene(cardJSON, hideText, showGuides) — scene graph as JSON.
func composeScene(this js.Value, args []js.Value) any {
	c, err := parseCard(args)
	if err != nil {
		return errorValue("%v", err)
	}
	scene := layout.Compose(c, layout.Options{
		HideText:   boolArg(args, 1),
		ShowGuides: boolArg(args, 2),
		Measurer:   raster.Fonts(),
	})
	data, err := json.Marshal(scene)
	if err != nil {
		return errorValue("encode scene: %v", err)
	}
	return js.ValueOf(string(data))
}

// goRenderCard(cardJSON, scale, showGuides) — base64 PNG preview.
func renderCard(this js.Value, args []js.Value) any {
	c, err := parseCard(args)
	if err != nil {
		return errorValue("%v", err)
	}
	scale := 1.0
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		scale = args[1].Float()
	}
	scene := layout.Compose(c, layout.Options{ShowGuides: boolArg(args, 2), Measurer: raster.Fonts()})
	img, err := raster.Capture(scene, scale)
	if err != nil {
		return errorValue("%v", err)
	}
	out, err := encodePNG(img)
	if err != nil {
		return errorValue("%v", err)
	}
	return js.ValueOf(out)
}

// goExportCard(cardJSON) — {filename, png} at export scale, guides off.
func exportCard(this js.Value, args []js.Value) any {
	c, err := parseCard(args)
	if err != nil {
		return errorValue("%v", err)
	}
	img, err := export.Export(layout.Compose(c, layout.Options{Measurer: raster.Fonts()}), raster)
	if err != nil {
		return errorValue("%v", err)
	}
	out, err := encodePNG(img)
	if err != nil {
		return errorValue("%v", err)
	}
	return js.ValueOf(map[string]any{
		"filename": export.Filename(time.Now()),
		"png":      out,
	})
}

// goApplyTheme(cardJSON, name) — themed card JSON.
func applyTheme(this js.Value, args []js.Value) any {
	c, err := parseCard(args)
	if err != nil {
		return errorValue("%v", err)
	}
	if len(args) < 2 {
		return errorValue("need theme name")
	}
	t, ok := card.LookupTheme(args[1].String())
	if !ok {
		return errorValue("unknown theme %q", args[1].String())
	}
	data, err := json.Marshal(card.ApplyTheme(c, t))
	if err != nil {
		return errorValue("encode card: %v", err)
	}
	return js.ValueOf(string(data))
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, ".png", img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
