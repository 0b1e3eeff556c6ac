package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/layout"
)

func TestChapterOf(t *testing.T) {
	tests := []struct {
		key     string
		want    int
		wantErr bool
	}{
		{"2:255", 2, false},
		{"112:1", 112, false},
		{"2", 0, true},
		{"x:1", 0, true},
		{"0:1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := chapterOf(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	t.Cleanup(func() { renderTheme, renderSize = "", "" })

	renderTheme, renderSize = "royal", "story"
	c, err := applyFlags(card.Default())
	require.NoError(t, err)
	assert.Equal(t, "#2e1065", c.Background.Color)
	assert.Equal(t, 1080, c.Width)
	assert.Equal(t, 1920, c.Height)

	renderTheme, renderSize = "neon", ""
	_, err = applyFlags(card.Default())
	assert.ErrorContains(t, err, "unknown theme")

	renderTheme, renderSize = "", "banner"
	_, err = applyFlags(card.Default())
	assert.ErrorContains(t, err, "unknown size preset")
}

func TestLabelsFor(t *testing.T) {
	assert.Equal(t, layout.ArabicLabels, labelsFor("ar"))
	assert.Equal(t, layout.EnglishLabels, labelsFor("en"))
	assert.Equal(t, layout.EnglishLabels, labelsFor(""))
}

func TestInitThenRender(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cardPath := filepath.Join(dir, "card.json")
	outPath := filepath.Join(dir, "card.png")

	rootCmd.SetArgs([]string{"init", "-o", cardPath})
	require.NoError(t, rootCmd.Execute())

	c, err := card.ParseFile(cardPath)
	require.NoError(t, err)
	assert.Equal(t, card.Default().Width, c.Width)

	rootCmd.SetArgs([]string{"render", cardPath, "-o", outPath, "--scale", "1", "--font-dir", ""})
	require.NoError(t, rootCmd.Execute())

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, c.Width, cfgImg.Width)
	assert.Equal(t, c.Height, cfgImg.Height)
}
