package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"assetgate/internal/domain"
	audit "assetgate/pkg/platform/audit"
	"assetgate/pkg/platform/httputil"
)

// AssetReader exposes the registry of verified assets.
type AssetReader interface {
	Get(ctx context.Context, id string) (domain.EligibleAsset, error)
	List(ctx context.Context) ([]domain.EligibleAsset, error)
}

// AssetHandler serves the read-only asset registry endpoints and the audit
// trail.
type AssetHandler struct {
	assets AssetReader
	trail  audit.Store
	logger *slog.Logger
}

// NewAssetHandler constructs the handler. trail may be nil, which disables
// the audit endpoints.
func NewAssetHandler(assets AssetReader, trail audit.Store, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, trail: trail, logger: logger}
}

// Register mounts asset endpoints on the router.
func (h *AssetHandler) Register(r chi.Router) {
	r.Get("/assets", h.HandleList)
	r.Get("/assets/{id}", h.HandleGet)
	if h.trail != nil {
		r.Get("/audit/events", h.HandleAuditRecent)
		r.Get("/audit/submissions/{id}", h.HandleAuditBySubmission)
	}
}

// HandleList handles GET /api/v1/assets.
func (h *AssetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// HandleGet handles GET /api/v1/assets/{id}.
func (h *AssetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

// HandleAuditRecent handles GET /api/v1/audit/events?limit=N.
func (h *AssetHandler) HandleAuditRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := h.trail.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// HandleAuditBySubmission handles GET /api/v1/audit/submissions/{id}.
func (h *AssetHandler) HandleAuditBySubmission(w http.ResponseWriter, r *http.Request) {
	events, err := h.trail.ListBySubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
