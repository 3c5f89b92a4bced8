package handlers

import (
	"codereview-backend/internal/hooks"
	api_models "codereview-backend/internal/models"
	"codereview-backend/internal/services"
	"codereview-backend/pkg/httputil"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IntegrationService defines what the handler needs from the integration service.
type IntegrationService interface {
	ListIntegrations() []api_models.IntegrationResponse
	Capabilities() map[string]any
	HostingServices() []hooks.HostingService
	RenderHookPoint(point string, rc hooks.RenderContext) (*api_models.HookPointResponse, error)
}

type IntegrationHandler struct {
	integrationService IntegrationService
	logger             *zap.Logger
}

func NewIntegrationHandler(integrationSvc IntegrationService, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationSvc,
		logger:             logger,
	}
}

// HandleListIntegrations handles GET /v1/integrations
func (h *IntegrationHandler) HandleListIntegrations(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.integrationService.ListIntegrations())
}

// HandleCapabilities handles GET /v1/capabilities
func (h *IntegrationHandler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.integrationService.Capabilities())
}

// HandleListHostingServices handles GET /v1/hosting-services
func (h *IntegrationHandler) HandleListHostingServices(w http.ResponseWriter, r *http.Request) {
	list := h.integrationService.HostingServices()
	if list == nil {
		list = []hooks.HostingService{}
	}
	httputil.RespondJSON(w, http.StatusOK, list)
}

// HandleRenderHookPoint handles GET /v1/hook-points/{point}
//
// Query parameters: review_request_id, comment_id, comment_text and
// html_email (comment detail points only).
func (h *IntegrationHandler) HandleRenderHookPoint(w http.ResponseWriter, r *http.Request) {
	point := chi.URLParam(r, "point")
	query := r.URL.Query()

	var rc hooks.RenderContext
	if v := query.Get("review_request_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid review_request_id")
			return
		}
		rc.ReviewRequestID = id
	}
	if v := query.Get("comment_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid comment_id")
			return
		}
		rc.Comment = &hooks.Comment{ID: id, Text: query.Get("comment_text")}
	}
	if v := query.Get("html_email"); v != "" {
		htmlEmail, err := strconv.ParseBool(v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid html_email")
			return
		}
		rc.HTMLEmail = htmlEmail
	}

	resp, err := h.integrationService.RenderHookPoint(point, rc)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHookPointNotFound):
			httputil.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("[IntegrationHandler] HandleRenderHookPoint failed", zap.String("point", point), zap.Error(err))
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to render hook point")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
