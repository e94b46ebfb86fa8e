package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/types"
)

const imageField = "image"

// ImportDependencies is the image import surface used by ImportsHandler.
type ImportDependencies interface {
	SubmitImport(ctx context.Context, img model.Image) (types.ImportStatus, error)
	Import(ctx context.Context, id string) (types.ImportStatus, error)
}

// ImportsHandler handles /imports requests.
type ImportsHandler struct {
	deps     ImportDependencies
	maxBytes int64
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(deps ImportDependencies, maxBytes int64) *ImportsHandler {
	return &ImportsHandler{deps: deps, maxBytes: maxBytes}
}

// HandleSubmit handles POST /imports. The image is either the raw request
// body or the multipart field "image". The job runs in the background; the
// response carries its id for polling.
func (h *ImportsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	img, err := h.readImage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, h.maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	status, err := h.deps.SubmitImport(r.Context(), img)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/imports/"+status.ID)
	writeJSON(w, http.StatusAccepted, status)
}

// HandleGet handles GET /imports/{id}.
func (h *ImportsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	status, err := h.deps.Import(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *ImportsHandler) readImage(r *http.Request) (model.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			return model.Image{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		file, header, err := r.FormFile(imageField)
		if err != nil {
			return model.Image{}, fmt.Errorf("%w: missing %q field: %w", ErrBadRequest, imageField, err)
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return model.Image{}, err
		}
		return model.Image{Data: data, MIMEType: imageType(header.Header.Get("Content-Type"))}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return model.Image{}, err
	}
	return model.Image{Data: data, MIMEType: imageType(r.Header.Get("Content-Type"))}, nil
}

// imageType returns the declared media type, or "" when the client sent
// none or only a generic binary type, in which case the service sniffs the
// bytes. Any other declared type is passed on and must be a supported image.
func imageType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	switch mediaType {
	case "application/octet-stream", "binary/octet-stream":
		return ""
	default:
		return mediaType
	}
}
