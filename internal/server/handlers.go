package server

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmribera/textaudit/internal/model"
	"github.com/jmribera/textaudit/internal/pipeline"
	"github.com/jmribera/textaudit/internal/score"
)

// DocumentAnalyzer analyzes a page range of a PDF buffer.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc []byte, startPage, endPage int, onProgress pipeline.ProgressFunc) (*model.Report, error)
	Backend() string
}

// Handler serves the analysis API.
type Handler struct {
	analyzer       DocumentAnalyzer
	scorer         *score.Scorer
	maxUploadBytes int64
}

// NewHandler creates the API handler.
func NewHandler(analyzer DocumentAnalyzer, maxUploadBytes int64) *Handler {
	return &Handler{
		analyzer:       analyzer,
		scorer:         score.NewScorer(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Health reports service liveness and the active backend.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": h.analyzer.Backend(),
	})
}

// Validate handles the document analysis request: a multipart upload with
// the PDF under "file" and optional "start_page"/"end_page" fields.
func (h *Handler) Validate(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != "" && ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are accepted"})
		return
	}
	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are accepted"})
		return
	}

	doc, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if err := pipeline.CheckPDFHeader(doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are accepted"})
		return
	}

	startPage, ok := formInt(c, "start_page", 1)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_page"})
		return
	}
	endPage, ok := formInt(c, "end_page", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_page"})
		return
	}
	if endPage == 0 {
		// Pages past the document end are clamped off.
		endPage = 1 << 20
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), doc, startPage, endPage, nil)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "analysis failed: " + err.Error()})
		return
	}

	report.DocumentName = filepath.Base(header.Filename)
	sc := h.scorer.Calculate(report)
	report.Score = &sc

	c.JSON(http.StatusOK, report)
}

func formInt(c *gin.Context, field string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
