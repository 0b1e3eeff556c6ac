// render.go — render, export and scene commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/export"
	"github.com/xob0t/ayatcard/pkg/layout"
)

var (
	renderOut    string
	renderScale  float64
	renderTheme  string
	renderSize   string
	renderGuides bool
	renderHide   bool
	renderLang   string
	exportDir    string
)

var renderCmd = &cobra.Command{
	Use:   "render [card]",
	Short: "Render a card to PNG or JPEG",
	Long: `Render composes a card and rasterizes it. Without a card argument the
default card is used. Without -o the PNG is written to stdout, which must
not be a terminal.

Examples:
  ayatcard render card.json -o card.png
  ayatcard render card.ayatcard --theme Royal --size story -o story.jpg
  ayatcard render --guides --scale 1 > preview.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := loadCard(args)
		defer cleanup()
		if err != nil {
			return err
		}
		if c, err = applyFlags(c); err != nil {
			return err
		}

		raster := newRasterizer()
		scene := layout.Compose(c, layout.Options{
			HideText:   renderHide,
			ShowGuides: renderGuides,
			Measurer:   raster.Fonts(),
			Labels:     labelsFor(renderLang),
		})

		var img image.Image
		if renderScale == export.Scale && !renderGuides {
			img, err = export.Export(scene, raster)
		} else {
			img, err = raster.Capture(scene, renderScale)
		}
		if err != nil {
			return err
		}

		if renderOut == "" {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("refusing to write PNG data to a terminal: use -o or redirect stdout")
			}
			return export.Encode(os.Stdout, ".png", img)
		}
		if err := export.WriteFile(renderOut, img); err != nil {
			return err
		}
		b := img.Bounds()
		fmt.Printf("Done: %s (%dx%d)\n", renderOut, b.Dx(), b.Dy())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [card]",
	Short: "Export a card as ayat-card-<timestamp>.png at 2x",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := loadCard(args)
		defer cleanup()
		if err != nil {
			return err
		}
		if c, err = applyFlags(c); err != nil {
			return err
		}

		raster := newRasterizer()
		img, err := export.Export(layout.Compose(c, layout.Options{Measurer: raster.Fonts()}), raster)
		if err != nil {
			return err
		}
		path := filepath.Join(exportDir, export.Filename(time.Now()))
		if err := export.WriteFile(path, img); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var sceneCmd = &cobra.Command{
	Use:   "scene [card]",
	Short: "Print the composed scene graph as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := loadCard(args)
		defer cleanup()
		if err != nil {
			return err
		}
		if c, err = applyFlags(c); err != nil {
			return err
		}

		scene := layout.Compose(c, layout.Options{
			HideText:   renderHide,
			ShowGuides: renderGuides,
			Measurer:   newRasterizer().Fonts(),
			Labels:     labelsFor(renderLang),
		})
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scene)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{renderCmd, exportCmd, sceneCmd} {
		cmd.Flags().StringVar(&renderTheme, "theme", "", "apply a built-in colour theme")
		cmd.Flags().StringVar(&renderSize, "size", "", "apply a size preset (square, story, web)")
	}
	for _, cmd := range []*cobra.Command{renderCmd, sceneCmd} {
		cmd.Flags().BoolVar(&renderGuides, "guides", false, "draw layout guides")
		cmd.Flags().BoolVar(&renderHide, "hide-text", false, "drop the four text layers")
		cmd.Flags().StringVar(&renderLang, "lang", "en", "guide label language (ar, en)")
	}
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (.png, .jpg); stdout when empty")
	renderCmd.Flags().Float64Var(&renderScale, "scale", export.Scale, "pixel scale")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
}

func applyFlags(c card.Card) (card.Card, error) {
	if renderTheme != "" {
		t, ok := card.LookupTheme(renderTheme)
		if !ok {
			return c, fmt.Errorf("unknown theme %q (see: ayatcard themes)", renderTheme)
		}
		c = card.ApplyTheme(c, t)
	}
	if renderSize != "" {
		var ok bool
		if c, ok = c.WithSizePreset(renderSize); !ok {
			return c, fmt.Errorf("unknown size preset %q", renderSize)
		}
	}
	return c, nil
}

func labelsFor(lang string) layout.GuideLabels {
	if lang == string(content.Arabic) {
		return layout.ArabicLabels
	}
	return layout.EnglishLabels
}
