package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ramosjr18/categorizar-docs/internal/document_service/service"
	"github.com/ramosjr18/categorizar-docs/internal/models"
	"github.com/ramosjr18/categorizar-docs/pkg/logger"
)

// Handler holds the document API endpoints.
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a Handler over the archive service.
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// Upload ingests a batch of files. The multipart form carries one or more
// "files" parts and an optional "strategy" field ("replace" or
// "new_version") used to resolve an ambiguous re-upload. The response
// reports every file individually and flags whether any file still needs
// a decision.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	parts := form.File["files"]
	if len(parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files received"})
		return
	}

	strategy := service.Strategy(c.PostForm("strategy"))
	if !service.ValidStrategy(strategy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "strategy must be 'replace' or 'new_version'"})
		return
	}

	files := make([]service.UploadFile, 0, len(parts))
	for _, part := range parts {
		data, err := readPart(part)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file part: " + part.Filename})
			return
		}
		files = append(files, service.UploadFile{Name: part.Filename, Data: data})
	}

	batch := h.service.IngestBatch(c.Request.Context(), c.GetUint("userID"), files, strategy)
	c.JSON(http.StatusOK, batch)
}

func readPart(part *multipart.FileHeader) ([]byte, error) {
	f, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// List returns every committed version record, without the extracted text.
func (h *Handler) List(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		out = append(out, gin.H{
			"id":       doc.ID,
			"name":     doc.OriginalName,
			"type":     doc.FileExtension,
			"category": doc.Category,
			"date":     doc.UploadDate,
			"version":  doc.VersionNumber,
			"group":    doc.GroupKey,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one version record including its extracted text.
func (h *Handler) Get(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       doc.ID,
		"name":     doc.OriginalName,
		"type":     doc.FileExtension,
		"category": doc.Category,
		"content":  doc.ExtractedText,
		"date":     doc.UploadDate,
		"version":  doc.VersionNumber,
		"group":    doc.GroupKey,
	})
}

// Download streams the stored original bytes of a version.
func (h *Handler) Download(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}

	data, err := h.service.ReadDocumentFile(c.Request.Context(), doc)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "stored file is missing"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.OriginalName+`"`)
	c.Data(http.StatusOK, contentTypeFor(doc.FileExtension), data)
}

// Delete removes a version record and its stored file.
func (h *Handler) Delete(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

// Sheets lists the sheet names (xlsx) or column names (csv) of a version.
func (h *Handler) Sheets(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	names, err := h.service.SheetNames(c.Request.Context(), doc.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, names)
}

// Charts builds label/value series for the requested documents and sheets.
func (h *Handler) Charts(c *gin.Context) {
	var selections []service.ChartSelection
	if err := c.ShouldBindJSON(&selections); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of {id, sheets} selections"})
		return
	}

	series, err := h.service.ChartData(c.Request.Context(), selections)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

// Chartable checks whether an uploaded tabular file has enough shape to
// chart, without committing anything to the archive.
func (h *Handler) Chartable(c *gin.Context) {
	part, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file received"})
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(part.Filename)), ".")
	if ext != "xlsx" && ext != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"chartable": false, "error": "only xlsx and csv files can be charted"})
		return
	}

	data, err := readPart(part)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	chartable, err := service.Chartable(data, ext)
	if err != nil {
		h.log.WithError(err).Warn("chartability check failed")
		c.JSON(http.StatusOK, gin.H{"chartable": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chartable": chartable})
}

func (h *Handler) lookup(c *gin.Context) (*models.Document, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return nil, false
	}

	record, err := h.service.GetDocument(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return record, true
}

func contentTypeFor(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
