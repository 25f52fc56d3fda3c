package exports

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"pipeline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 10 << 20

// Handler serves export downloads and CSV imports.
type Handler struct {
	svc *Service
}

// NewHandler creates a new exports handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Export streams an export, or uploads it and returns a download link when upload=true.
// GET /api/v1/exports/:entity?format=csv|json|xlsx&upload=true
func (h *Handler) Export(c *gin.Context) {
	entity, err := ParseEntity(c.Param("entity"))
	if httpkit.HandleError(c, err) {
		return
	}
	format, err := ParseFormat(c.Query("format"))
	if httpkit.HandleError(c, err) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return
	}

	if parseBool(c.Query("upload")) {
		result, err := h.svc.ExportAndUpload(c.Request.Context(), tenantID, entity, format)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Created(c, result)
		return
	}

	doc, _, err := h.svc.Export(c.Request.Context(), tenantID, entity, format)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// Import loads a CSV upload. The file may come as multipart field "file" or as the raw body.
// POST /api/v1/imports/:entity
func (h *Handler) Import(c *gin.Context) {
	entity, err := ParseEntity(c.Param("entity"))
	if httpkit.HandleError(c, err) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	body, closeBody, err := importBody(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid import file", err.Error())
		return
	}
	defer closeBody()

	result, err := h.svc.Import(c.Request.Context(), tenantID, entity, body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		f, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if c.Request.ContentLength == 0 {
		return nil, nil, fmt.Errorf("empty body")
	}
	return c.Request.Body, func() {}, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
