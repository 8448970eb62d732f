package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "golook/internal/errors"
)

// DownloadHandler serves exported result files.
type DownloadHandler struct {
	dir    string
	logger *slog.Logger
}

// NewDownloadHandler creates a download handler over the exports directory.
func NewDownloadHandler(dir string, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		dir:    dir,
		logger: logger.With(slog.String("handler", "download")),
	}
}

// Routes returns the download routes.
func (h *DownloadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{format}/{filename}", h.Download)
	return r
}

var contentTypes = map[string]string{
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Download handles GET /api/download/{format}/{filename}.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	filename := chi.URLParam(r, "filename")

	contentType, ok := contentTypes[format]
	if !ok {
		apierrors.RenderError(w, r, apierrors.ErrValidation("format", "format must be csv or xlsx"))
		return
	}
	if filename == "" || filepath.Base(filename) != filename || !strings.HasSuffix(filename, "."+format) {
		apierrors.RenderError(w, r, apierrors.ErrValidation("filename", "filename must be a bare file of the requested format"))
		return
	}

	path := filepath.Join(h.dir, filename)
	if _, err := os.Stat(path); err != nil {
		apierrors.RenderError(w, r, apierrors.NotFoundError(filename))
		return
	}

	h.logger.InfoContext(r.Context(), "serving export",
		slog.String("filename", filename),
		slog.String("format", format))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}
