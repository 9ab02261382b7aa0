package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/export"
	"github.com/dvloznov/moneyflow/internal/gcs"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExportsHandler handles ledger export jobs.
type ExportsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	storage   gcs.StorageService
	expiry    time.Duration
	loc       *time.Location
	log       zerolog.Logger
}

// NewExportsHandler creates a new exports handler. A nil publisher or storage
// disables exports.
func NewExportsHandler(publisher jobs.Publisher, store jobs.JobStore, storage gcs.StorageService, expiry time.Duration, loc *time.Location, log zerolog.Logger) *ExportsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportsHandler{
		publisher: publisher,
		store:     store,
		storage:   storage,
		expiry:    expiry,
		loc:       loc,
		log:       log,
	}
}

func (h *ExportsHandler) enabled(w http.ResponseWriter) bool {
	if h.publisher == nil || h.storage == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Exports are not configured")
		return false
	}
	return true
}

// CreateExport handles POST /api/exports
func (h *ExportsHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	var req struct {
		Format    string `json:"format"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loc, err := requestLocation(r, h.loc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	job := &jobs.ExportJob{
		JobID:     uuid.New().String(),
		UserID:    middleware.UserID(r.Context()),
		Format:    format,
		Status:    jobs.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if req.StartDate != "" {
		from, err := parseTime("startDate", req.StartDate, loc, false)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		job.From = &from
	}
	if req.EndDate != "" {
		to, err := parseTime("endDate", req.EndDate, loc, true)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		job.To = &to
	}
	if job.From != nil && job.To != nil && !job.From.Before(*job.To) {
		writeServiceError(w, r, domain.Invalid("endDate", "must not be before startDate"))
		return
	}

	// The queue owns the published copy from here on.
	queued := *job
	if err := h.publisher.PublishExport(r.Context(), &queued); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", job.UserID).Str("format", string(format)).Msg("Export job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{"data": job})
}

// userJob loads a job and hides other users' jobs behind a 404.
func (h *ExportsHandler) userJob(w http.ResponseWriter, r *http.Request) (*jobs.ExportJob, bool) {
	job, err := h.store.GetJob(r.Context(), r.PathValue("id"))
	if err == nil && job.UserID != middleware.UserID(r.Context()) {
		err = fmt.Errorf("job %s: %w", job.JobID, domain.ErrNotFound)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
		} else {
			writeServiceError(w, r, err)
		}
		return nil, false
	}
	return job, true
}

// ListExports handles GET /api/exports
func (h *ExportsHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		UserID: middleware.UserID(r.Context()),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*jobs.ExportJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  list,
		"count": len(list),
	})
}

// GetExport handles GET /api/exports/{id}. Completed jobs carry a download
// URL: a signed GCS URL when the credentials can sign, the API's own download
// endpoint otherwise.
func (h *ExportsHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.userJob(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{"data": job}
	if job.Status == jobs.JobStatusCompleted && job.GCSURI != "" {
		downloadURL := "/api/exports/" + job.JobID + "/download"
		if h.storage != nil {
			if signed, err := h.storage.SignedURL(r.Context(), job.GCSURI, h.expiry); err == nil {
				downloadURL = signed
			} else {
				h.log.Debug().Err(err).Str("job_id", job.JobID).Msg("Signed URL unavailable, using proxy download")
			}
		}
		resp["download_url"] = downloadURL
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// DownloadExport handles GET /api/exports/{id}/download
func (h *ExportsHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	job, ok := h.userJob(w, r)
	if !ok {
		return
	}
	if job.Status != jobs.JobStatusCompleted || job.GCSURI == "" {
		middleware.WriteError(w, http.StatusConflict, "Export is not ready")
		return
	}

	data, err := h.storage.Fetch(r.Context(), job.GCSURI)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to fetch export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType(job.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gcs.Filename(job.GCSURI)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
