package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "golook/internal/errors"
	"golook/internal/look"
)

// RecordingInfo describes one raw recording on disk.
type RecordingInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Checksum   string    `json:"checksum,omitempty"`
	Experiment string    `json:"experiment,omitempty"`
	Channels   int       `json:"channels,omitempty"`
	Records    int       `json:"records,omitempty"`
}

// RecordingsHandler lists raw recordings available for reduction.
type RecordingsHandler struct {
	dir    string
	logger *slog.Logger
}

// NewRecordingsHandler creates a recordings handler over the given directory.
func NewRecordingsHandler(dir string, logger *slog.Logger) *RecordingsHandler {
	return &RecordingsHandler{
		dir:    dir,
		logger: logger.With(slog.String("handler", "recordings")),
	}
}

// Routes returns the recording routes.
func (h *RecordingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.List)
	r.Get("/{name}", h.Describe)
	return r
}

// List handles GET /api/recordings.
func (h *RecordingsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list recordings",
			slog.String("dir", h.dir),
			slog.String("error", err.Error()))
		apierrors.RenderError(w, r, apierrors.FileSystemError("list recordings", err))
		return
	}

	infos := make([]RecordingInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".look") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		// Recordings are small lab files; hashing on list is affordable
		// and lets clients spot silent corruption.
		sum, err := look.Checksum(filepath.Join(h.dir, entry.Name()))
		if err != nil {
			h.logger.WarnContext(r.Context(), "failed to checksum recording",
				slog.String("name", entry.Name()),
				slog.String("error", err.Error()))
		}
		infos = append(infos, RecordingInfo{
			Name:       entry.Name(),
			Size:       fi.Size(),
			ModifiedAt: fi.ModTime(),
			Checksum:   sum,
		})
	}
	render.JSON(w, r, map[string]interface{}{"recordings": infos})
}

// Describe handles GET /api/recordings/{name}: the listing entry plus the
// recording header metadata.
func (h *RecordingsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || filepath.Base(name) != name {
		apierrors.RenderError(w, r, apierrors.ErrValidation("name", "recording name must be a bare filename"))
		return
	}

	path := filepath.Join(h.dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.ErrRecordingNotFound)
		return
	}

	_, meta, err := look.ReadFile(path)
	if err != nil {
		apierrors.RenderError(w, r, err)
		return
	}

	sum, err := look.Checksum(path)
	if err != nil {
		apierrors.RenderError(w, r, apierrors.FileSystemError("checksum recording", err))
		return
	}

	render.JSON(w, r, RecordingInfo{
		Name:       name,
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime(),
		Checksum:   sum,
		Experiment: meta.Experiment,
		Channels:   meta.Channels,
		Records:    meta.Records,
	})
}
