// Package server provides the AyatCard editor HTTP API.
//
// The server owns one editor session. Every request reads or replaces that
// session's card; the scene, preview and export endpoints recompose it from
// scratch on each call.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xob0t/ayatcard/pkg/config"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/editor"
	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/render"
)

// Options configure a Server. Nil collaborators are built from Config.
type Options struct {
	Config    config.Config
	Logger    *slog.Logger
	Content   content.Source
	Generator genai.Editor
}

// Server is the editor API.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	assets  *assetManager
	raster  *render.Rasterizer
	session *editor.Session
	engine  *gin.Engine
}

// New wires a Server.
func New(opts Options) *Server {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src := opts.Content
	if src == nil {
		src = content.NewClient(cfg.QuranAPIBase, cfg.CommentaryAPIBase, cfg.HTTPTimeout)
	}
	gen := opts.Generator
	if gen == nil && cfg.GeminiAPIKey != "" {
		gen = genai.New(genai.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			RPS:     cfg.GenerationRPS,
			Logger:  logger,
		})
	}

	s := &Server{cfg: cfg, logger: logger, assets: newAssetManager()}
	fonts := render.NewFontLibrary(cfg.FontDir, logger)
	s.raster = render.NewRasterizer(fonts, render.Chain{s.assets, render.DataURLs{}}, logger)
	s.session = editor.New(editor.Options{
		Content:   src,
		Capturer:  s.raster,
		Measurer:  fonts,
		Generator: gen,
		Store:     s.assets.store,
		Logger:    logger,
	})
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Session exposes the editor session.
func (s *Server) Session() *editor.Session { return s.session }

func (s *Server) routes() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		api.GET("/card", s.getCard)
		api.PUT("/card", s.putCard)
		api.PATCH("/card", s.patchCard)
		api.POST("/card/reset", s.resetCard)
		api.GET("/card/warnings", s.cardWarnings)
		api.POST("/card/theme", s.applyTheme)
		api.POST("/card/size", s.applySize)

		api.GET("/themes", s.listThemes)
		api.GET("/sizes", s.listSizes)
		api.GET("/fonts", s.listFonts)

		api.GET("/scene", s.scene)
		api.GET("/preview", s.preview)
		api.GET("/export/png", s.exportImage)
		api.GET("/export/bundle", s.exportBundle)
		api.POST("/import/bundle", s.importBundle)

		api.POST("/upload/image", s.uploadImage)
		api.GET("/assets", s.listAssets)
		api.GET("/assets/:id", s.getAsset)
		api.DELETE("/assets/:id", s.deleteAsset)

		api.GET("/content/chapters", s.chapters)
		api.GET("/content/chapters/:id/verses", s.verses)
		api.GET("/content/editions", s.editions)
		api.GET("/content/selection", s.selection)
		api.POST("/content/select", s.selectVerse)
		api.POST("/content/edition", s.selectEdition)
		api.POST("/content/lang", s.setLang)

		api.POST("/generate", s.generate)
		api.GET("/generate/status", s.generateStatus)
		api.GET("/generate/history", s.generateHistory)
		api.GET("/interop", s.interop)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// Run serves the API on cfg.Addr until ctx is cancelled.
func Run(ctx context.Context, s *Server, open bool) error {
	hs := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	url := "http://localhost" + s.cfg.Addr()
	s.logger.Info("editor API listening", "url", url)
	if open {
		go openBrowser(url + "/api/preview?guides=1")
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return hs.Shutdown(shutdownCtx)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
