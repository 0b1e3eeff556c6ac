// handlers.go — HTTP handlers for the editor API.
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/editor"
	"github.com/xob0t/ayatcard/pkg/export"
	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/layout"
	"github.com/xob0t/ayatcard/pkg/render"
)

const (
	maxUpload    = 10 << 20
	maxPreview   = 4.0
	cardResponse = "card"
)

// ── Errors ──

type apiError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, apiError{Code: code, Error: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "bad_request", err)
}

// fail maps a domain error to its status. Generation messages pass through
// unchanged so the user sees what the service said.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrGenerationInFlight):
		abort(c, http.StatusConflict, "generation_in_flight", err)
	case errors.Is(err, editor.ErrEmptyPrompt):
		abort(c, http.StatusBadRequest, "empty_prompt", err)
	case errors.Is(err, editor.ErrNoGenerator):
		abort(c, http.StatusServiceUnavailable, "generation_disabled", err)
	case errors.Is(err, editor.ErrUnknownTheme):
		abort(c, http.StatusNotFound, "unknown_theme", err)
	case errors.Is(err, editor.ErrUnknownSize):
		abort(c, http.StatusNotFound, "unknown_size", err)
	case errors.Is(err, editor.ErrUnknownVerse):
		abort(c, http.StatusNotFound, "unknown_verse", err)
	case genai.IsGenerationError(err):
		abort(c, http.StatusBadGateway, "generation_failed", err)
	case export.IsCaptureError(err):
		abort(c, http.StatusInternalServerError, "capture_failed", err)
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		abort(c, http.StatusInternalServerError, "internal", err)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ── Card ──

func (s *Server) getCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Card())
}

func warningsFor(cd card.Card) []string {
	w := card.Validate(cd)
	if w == nil {
		w = []string{}
	}
	return w
}

func (s *Server) putCard(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	cd, err := card.Parse(body)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.session.SetCard(cd)
	c.JSON(http.StatusOK, gin.H{cardResponse: cd, "warnings": warningsFor(cd)})
}

func (s *Server) patchCard(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	cd, err := s.session.Patch(body)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{cardResponse: cd, "warnings": warningsFor(cd)})
}

func (s *Server) resetCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Reset())
}

func (s *Server) cardWarnings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"warnings": warningsFor(s.session.Card())})
}

func (s *Server) applyTheme(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cd, err := s.session.ApplyTheme(req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

func (s *Server) applySize(c *gin.Context) {
	var req struct {
		Preset string `json:"preset"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Preset == "" {
		if req.Width <= 0 || req.Height <= 0 {
			badRequest(c, errors.New("give a preset or a positive width and height"))
			return
		}
		c.JSON(http.StatusOK, s.session.Update(func(cd card.Card) card.Card {
			return cd.WithSize(req.Width, req.Height)
		}))
		return
	}
	cd, err := s.session.ApplySize(req.Preset)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

func (s *Server) listThemes(c *gin.Context) {
	c.JSON(http.StatusOK, card.Themes)
}

func (s *Server) listSizes(c *gin.Context) {
	c.JSON(http.StatusOK, card.SizePresets)
}

func (s *Server) listFonts(c *gin.Context) {
	names := make([]string, len(card.Fonts))
	for i, f := range card.Fonts {
		names[i] = f.Value
	}
	installed := s.raster.Fonts().Families(names)

	type fontInfo struct {
		card.FontFamily
		Installed bool `json:"installed"`
	}
	out := make([]fontInfo, len(card.Fonts))
	for i, f := range card.Fonts {
		out[i] = fontInfo{FontFamily: f, Installed: installed[f.Value]}
	}
	c.JSON(http.StatusOK, out)
}

// ── Scene and images ──

func viewFrom(c *gin.Context) editor.View {
	v := editor.View{
		ShowGuides: queryBool(c, "guides"),
		HideText:   queryBool(c, "hideText"),
	}
	if c.Query("lang") == string(content.Arabic) {
		v.Labels = layout.ArabicLabels
	}
	return v
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func (s *Server) scene(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Scene(viewFrom(c)))
}

func (s *Server) preview(c *gin.Context) {
	scale := s.cfg.PreviewScale
	if scale <= 0 {
		scale = 1
	}
	if q := c.Query("scale"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 || v > maxPreview {
			badRequest(c, errors.New("scale must be a number in (0, 4]"))
			return
		}
		scale = v
	}

	img, err := s.session.Preview(viewFrom(c), scale)
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Encode(&buf, ".png", img); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) exportImage(c *gin.Context) {
	img, name, err := s.session.Export()
	if err != nil {
		s.fail(c, err)
		return
	}

	ext, mimeType := ".png", "image/png"
	if f := strings.ToLower(c.Query("format")); f == "jpg" || f == "jpeg" {
		ext, mimeType = ".jpg", "image/jpeg"
		name = strings.TrimSuffix(name, ".png") + ext
	}
	var buf bytes.Buffer
	if err := export.Encode(&buf, ext, img); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, mimeType, buf.Bytes())
}

func (s *Server) exportBundle(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.writeBundle(&buf, s.session.Card()); err != nil {
		s.fail(c, err)
		return
	}
	name := strings.TrimSuffix(export.Filename(time.Now()), ".png") + card.BundleExt
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) importBundle(c *gin.Context) {
	data, _, ok := readUpload(c, maxBundle)
	if !ok {
		return
	}
	cd, imported, err := s.readBundle(data)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.session.SetCard(cd)
	c.JSON(http.StatusOK, gin.H{cardResponse: cd, "assets": imported, "warnings": warningsFor(cd)})
}

// ── Assets ──

func readUpload(c *gin.Context, limit int64) ([]byte, string, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("no file uploaded"))
		return nil, "", false
	}
	if fh.Size > limit {
		abort(c, http.StatusRequestEntityTooLarge, "too_large", errors.New("file is too large"))
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return nil, "", false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		badRequest(c, err)
		return nil, "", false
	}
	return data, fh.Filename, true
}

func (s *Server) uploadImage(c *gin.Context) {
	data, filename, ok := readUpload(c, maxUpload)
	if !ok {
		return
	}
	if _, err := render.DecodeImage(data); err != nil {
		badRequest(c, err)
		return
	}
	name := sanitizeFilename(filename)
	a := s.assets.add(name, data, mimeForName(name))

	resp := gin.H{"id": a.ID, "name": a.Name, "url": assetPrefix + a.ID}
	if queryBool(c, "background") {
		resp[cardResponse] = s.session.Update(func(cd card.Card) card.Card {
			return cd.WithBackgroundImage(a.ID)
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listAssets(c *gin.Context) {
	c.JSON(http.StatusOK, s.assets.list())
}

func (s *Server) getAsset(c *gin.Context) {
	a, ok := s.assets.get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "unknown_asset", errors.New("asset not found"))
		return
	}
	c.Data(http.StatusOK, a.Mime, a.data)
}

func (s *Server) deleteAsset(c *gin.Context) {
	id := c.Param("id")
	if !s.assets.remove(id) {
		abort(c, http.StatusNotFound, "unknown_asset", errors.New("asset not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// ── Content ──

func (s *Server) chapters(c *gin.Context) {
	out := s.session.Chapters(c.Request.Context())
	if out == nil {
		out = []content.Chapter{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) verses(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, errors.New("chapter id must be a number"))
		return
	}
	out := s.session.Verses(c.Request.Context(), id)
	if out == nil {
		out = []content.Verse{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) editions(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Editions(c.Request.Context()))
}

func (s *Server) selection(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Selection())
}

func (s *Server) selectVerse(c *gin.Context) {
	var req struct {
		Chapter  int    `json:"chapter" binding:"required"`
		VerseKey string `json:"verseKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cd, err := s.session.SelectVerse(c.Request.Context(), req.Chapter, req.VerseKey)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

func (s *Server) selectEdition(c *gin.Context) {
	var req struct {
		Edition string `json:"edition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.SelectEdition(c.Request.Context(), req.Edition))
}

func (s *Server) setLang(c *gin.Context) {
	var req struct {
		Lang content.Lang `json:"lang"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Lang != content.Arabic && req.Lang != content.English {
		badRequest(c, errors.New(`lang must be "ar" or "en"`))
		return
	}
	s.session.SetLang(req.Lang)
	c.JSON(http.StatusOK, s.session.Selection())
}

// ── Generation ──

func (s *Server) generate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cd, err := s.session.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cd)
}

func (s *Server) generateStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"generating": s.session.Generating()})
}

func (s *Server) generateHistory(c *gin.Context) {
	h := s.session.History()
	if h == nil {
		h = []editor.HistoryEntry{}
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) interop(c *gin.Context) {
	prompt := strings.TrimSpace(c.Query("prompt"))
	if prompt == "" {
		badRequest(c, editor.ErrEmptyPrompt)
		return
	}
	cd := s.session.Card()
	c.IndentedJSON(http.StatusOK, genai.InteropPayload(genai.Prompt(prompt, genai.ClosestAspectRatio(cd.Width, cd.Height))))
}
