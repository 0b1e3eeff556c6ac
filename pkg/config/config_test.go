package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/ayatcard/pkg/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GEMINI_API_KEY", "")
	for _, k := range []string{"PORT", "DEBUG", "FONT_DIR", "GEMINI_API_KEY", "HTTP_TIMEOUT", "PREVIEW_SCALE"} {
		t.Setenv(config.EnvPrefix+k, "")
		os.Unsetenv(config.EnvPrefix + k)
	}
	os.Unsetenv("GEMINI_API_KEY")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ayatcard", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
port = "9090"
font_dir = "/usr/share/fonts/arabic"
http_timeout = "30s"
preview_scale = 0.5
`), 0o644))

	t.Setenv("AYATCARD_PORT", "7000")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port, "env wins over file")
	assert.Equal(t, "/usr/share/fonts/arabic", cfg.FontDir)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0.5, cfg.PreviewScale)
	assert.Equal(t, "secret", cfg.GeminiAPIKey)
	assert.Equal(t, config.Default().QuranAPIBase, cfg.QuranAPIBase)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("AYATCARD_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GeminiAPIKey)
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := config.Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "explicit path must exist")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("port = ["), 0o644))
	_, err = config.Load(bad)
	assert.Error(t, err)

	t.Setenv("AYATCARD_HTTP_TIMEOUT", "soon")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	want := config.Default()
	want.Port = "1234"
	want.Debug = true
	require.NoError(t, config.Write(path, want))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
