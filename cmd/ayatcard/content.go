// content.go — verse, generate and interop commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/editor"
	"github.com/xob0t/ayatcard/pkg/genai"
)

var (
	cardOut     string
	verseEdit   string
	verseLang   string
	generateRPS float64
)

var verseCmd = &cobra.Command{
	Use:   "verse <chapter:verse> [card]",
	Short: "Fill a card with a verse and its commentary",
	Long: `Verse fetches a verse and its commentary from the content API and writes
the populated card as JSON. Fetch failures leave the layers empty or with a
placeholder rather than failing.

Examples:
  ayatcard verse 2:255 -o kursi.json
  ayatcard verse 112:1 card.json --edition en.sahih --lang en`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, err := chapterOf(args[0])
		if err != nil {
			return err
		}
		c, cleanup, err := loadCard(args[1:])
		defer cleanup()
		if err != nil {
			return err
		}

		s := editor.New(editor.Options{
			Content: content.NewClient(cfg.QuranAPIBase, cfg.CommentaryAPIBase, cfg.HTTPTimeout),
			Logger:  logger,
		})
		s.SetCard(c)
		s.SetLang(content.Lang(verseLang))
		s.SelectEdition(cmd.Context(), verseEdit)
		if c, err = s.SelectVerse(cmd.Context(), chapter, args[0]); err != nil {
			return err
		}
		return writeCard(c)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt> [card]",
	Short: "Replace the card background with a generated image",
	Long: `Generate captures the card with its text hidden, sends it with the prompt
to the image model and writes the card with the new background inlined as a
data URL. Requires GEMINI_API_KEY.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := loadCard(args[1:])
		defer cleanup()
		if err != nil {
			return err
		}

		raster := newRasterizer()
		s := editor.New(editor.Options{
			Capturer: raster,
			Measurer: raster.Fonts(),
			Generator: genai.New(genai.Options{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
				RPS:     generateRPS,
				Logger:  logger,
			}),
			Logger: logger,
		})
		s.SetCard(c)

		if c, err = s.Generate(cmd.Context(), args[0]); err != nil {
			return err
		}
		return writeCard(c)
	},
}

var interopCmd = &cobra.Command{
	Use:   "interop <prompt> [card]",
	Short: "Print a request template for workflow tools (e.g. n8n)",
	Long: `Interop prints the HTTP request that a background generation would send,
with the API key and the captured image left as placeholders.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := loadCard(args[1:])
		defer cleanup()
		if err != nil {
			return err
		}
		prompt := genai.Prompt(args[0], genai.ClosestAspectRatio(c.Width, c.Height))
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(genai.InteropPayload(prompt))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{verseCmd, generateCmd} {
		cmd.Flags().StringVarP(&cardOut, "output", "o", "", "output card JSON; stdout when empty")
	}
	verseCmd.Flags().StringVar(&verseEdit, "edition", content.DefaultEdition, "commentary or translation edition")
	verseCmd.Flags().StringVar(&verseLang, "lang", string(content.Arabic), "label language (ar, en)")
	generateCmd.Flags().Float64Var(&generateRPS, "rps", 0, "request rate limit, 0 for the configured value")
	generateCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if generateRPS == 0 {
			generateRPS = cfg.GenerationRPS
		}
	}
}

func chapterOf(verseKey string) (int, error) {
	ch, _, ok := strings.Cut(verseKey, ":")
	n, err := strconv.Atoi(ch)
	if !ok || err != nil || n < 1 {
		return 0, fmt.Errorf("verse key %q is not <chapter>:<verse>", verseKey)
	}
	return n, nil
}

func writeCard(c card.Card) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	data = append(data, '\n')
	if cardOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(cardOut, data, 0o644); err != nil {
		return fmt.Errorf("write card: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created: %s\n", cardOut)
	return nil
}
