// AyatCard — Quranic verse card compositor.
//
// Usage:
//
//	ayatcard render [card.json|card.ayatcard] [-o out.png] [--scale 2]
//	ayatcard export [card] [--dir .]
//	ayatcard scene [card] [--guides]
//	ayatcard verse <chapter:verse> [card] [-o card.json]
//	ayatcard generate <prompt> [card] [-o card.json]
//	ayatcard interop <prompt> [card]
//	ayatcard themes
//	ayatcard init
//	ayatcard serve [--port 8080]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/config"
	"github.com/xob0t/ayatcard/pkg/render"
)

var (
	configPath string
	fontDir    string
	debug      bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ayatcard",
	Short: "Compose and export Quranic verse cards",
	Long: `AyatCard lays out a verse, its commentary, a decorative frame and a
branded footer on a canvas, and exports the result as a PNG at 2x scale.

Cards are JSON documents (see "ayatcard init") or .ayatcard bundles that
carry their background image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "serve" {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("font-dir") {
			cfg.FontDir = fontDir
		}
		if debug {
			cfg.Debug = true
		}

		level := slog.LevelWarn
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ayatcard/config.toml)")
	rootCmd.PersistentFlags().StringVar(&fontDir, "font-dir", "", "directory with the card fonts (.ttf/.otf)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	rootCmd.AddCommand(renderCmd, exportCmd, sceneCmd, verseCmd, generateCmd,
		interopCmd, themesCmd, initCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ── Shared helpers ──

var warnColor = color.New(color.FgYellow)

// loadCard opens the card named by the first argument, or the default card
// when there is none. Validation warnings go to stderr.
func loadCard(args []string) (card.Card, func(), error) {
	if len(args) == 0 {
		return card.Default(), func() {}, nil
	}
	c, cleanup, err := card.Load(args[0])
	if err != nil {
		return card.Card{}, cleanup, err
	}
	for _, w := range card.Validate(c) {
		warnColor.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return c, cleanup, nil
}

func newRasterizer() *render.Rasterizer {
	return render.NewRasterizer(render.NewFontLibrary(cfg.FontDir, logger), render.Files{}, logger)
}
