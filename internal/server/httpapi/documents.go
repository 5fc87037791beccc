package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/gin-gonic/gin"
)

const (
	documentFormField  = "file"
	defaultContentType = "application/octet-stream"
)

type documentResponse struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func toDocumentResponse(d *models.Document) documentResponse {
	return documentResponse{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
	}
}

func (h *handlers) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile(documentFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			abortWithError(c, http.StatusBadRequest, KindValidation, "missing multipart field "+documentFormField)
			return
		}
		badRequest(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	doc, err := h.svc.Documents.Upload(c.Request.Context(), actorFrom(c), fh.Filename, contentType, fh.Size, f)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (h *handlers) downloadDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	_, url, err := h.svc.Documents.Download(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}
