package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"assetgate/internal/domain"
	"assetgate/pkg/platform/httputil"
	"assetgate/pkg/requestcontext"
)

// SubmissionService defines the submission operations the transport needs.
type SubmissionService interface {
	Create(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	Get(ctx context.Context, id string) (domain.Submission, error)
	List(ctx context.Context) ([]domain.Submission, error)
	Progress(ctx context.Context, id string) (domain.Progress, error)
	FullResult(ctx context.Context, id string) (domain.FullResult, error)
}

// SubmissionHandler wires submission endpoints to the orchestrator.
type SubmissionHandler struct {
	service SubmissionService
	logger  *slog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{service: service, logger: logger}
}

// Register mounts submission endpoints on the router.
func (h *SubmissionHandler) Register(r chi.Router) {
	r.Post("/submissions", h.HandleCreate)
	r.Get("/submissions", h.HandleList)
	r.Get("/submissions/{id}", h.HandleGet)
	r.Get("/submissions/{id}/progress", h.HandleProgress)
	r.Get("/submissions/{id}/result", h.HandleResult)
}

// submissionAccepted is the 202 body for a newly created submission.
type submissionAccepted struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	Mock      bool          `json:"mock"`
	CreatedAt time.Time     `json:"createdAt"`
}

// HandleCreate handles POST /api/v1/submissions. Verification is
// asynchronous; the response carries the id to poll.
func (h *SubmissionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmissionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	// The authenticated identity wins over whatever the body claims.
	if submitter := requestcontext.SubmitterID(ctx); submitter != "" {
		req.SubmitterID = submitter
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "submission rejected at intake",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	sub, err := h.service.Create(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "submission create failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, submissionAccepted{
		ID:        sub.ID,
		Status:    sub.Status,
		Mock:      sub.Mock,
		CreatedAt: sub.CreatedAt,
	})
}

// HandleList handles GET /api/v1/submissions.
func (h *SubmissionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// HandleGet handles GET /api/v1/submissions/{id}.
func (h *SubmissionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

// HandleProgress handles GET /api/v1/submissions/{id}/progress.
func (h *SubmissionHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

// HandleResult handles GET /api/v1/submissions/{id}/result.
func (h *SubmissionHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	full, err := h.service.FullResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, full)
}
