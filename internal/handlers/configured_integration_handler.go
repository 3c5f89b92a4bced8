package handlers

import (
	api_models "codereview-backend/internal/models"
	"codereview-backend/internal/services"
	"codereview-backend/pkg/httputil"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type ConfiguredIntegrationHandler struct {
	configService services.ConfiguredIntegrationService
	logger        *zap.Logger
}

func NewConfiguredIntegrationHandler(configSvc services.ConfiguredIntegrationService, logger *zap.Logger) *ConfiguredIntegrationHandler {
	return &ConfiguredIntegrationHandler{
		configService: configSvc,
		logger:        logger,
	}
}

// respondServiceError maps configured integration service errors to HTTP codes.
func (h *ConfiguredIntegrationHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrConfigNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConfigValidation), errors.Is(err, services.ErrTestNotSupported):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConfigConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

// HandleListConfiguredIntegrations handles GET /v1/configured-integrations
func (h *ConfiguredIntegrationHandler) HandleListConfiguredIntegrations(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}

	// Optional filtering by integration type
	integrationID := r.URL.Query().Get("integration-id")

	configs, err := h.configService.ListConfiguredIntegrations(r.Context(), p, integrationID)
	if err != nil {
		h.logger.Error("[ConfigHandler] HandleListConfiguredIntegrations failed", zap.Stringer("user_id", p.UserID), zap.Error(err))
		h.respondServiceError(w, err, "Failed to list configured integrations")
		return
	}
	if configs == nil {
		configs = []api_models.ConfiguredIntegrationResponse{}
	}

	httputil.RespondJSON(w, http.StatusOK, configs)
}

// HandleGetConfiguredIntegration handles GET /v1/configured-integrations/{configID}
func (h *ConfiguredIntegrationHandler) HandleGetConfiguredIntegration(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := configIDParam(w, r)
	if !ok {
		return
	}

	resp, err := h.configService.GetConfiguredIntegration(r.Context(), p, id)
	if err != nil {
		h.logger.Warn("[ConfigHandler] HandleGetConfiguredIntegration failed", zap.Int64("config_id", id), zap.Error(err))
		h.respondServiceError(w, err, "Failed to get configured integration")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleCreateConfiguredIntegration handles POST /v1/configured-integrations
func (h *ConfiguredIntegrationHandler) HandleCreateConfiguredIntegration(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}

	var req api_models.CreateConfiguredIntegrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.IntegrationID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing required field: integration_id")
		return
	}

	resp, err := h.configService.CreateConfiguredIntegration(r.Context(), p, req)
	if err != nil {
		h.logger.Warn("[ConfigHandler] HandleCreateConfiguredIntegration failed",
			zap.String("integration_id", req.IntegrationID), zap.Error(err))
		h.respondServiceError(w, err, "Failed to create configured integration")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleUpdateConfiguredIntegration handles PUT /v1/configured-integrations/{configID}
func (h *ConfiguredIntegrationHandler) HandleUpdateConfiguredIntegration(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := configIDParam(w, r)
	if !ok {
		return
	}

	var req api_models.UpdateConfiguredIntegrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Enabled == nil {
		httputil.RespondError(w, http.StatusBadRequest, "Missing required field: enabled")
		return
	}

	resp, err := h.configService.UpdateConfiguredIntegration(r.Context(), p, id, req)
	if err != nil {
		h.logger.Warn("[ConfigHandler] HandleUpdateConfiguredIntegration failed", zap.Int64("config_id", id), zap.Error(err))
		h.respondServiceError(w, err, "Failed to update configured integration")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteConfiguredIntegration handles DELETE /v1/configured-integrations/{configID}
func (h *ConfiguredIntegrationHandler) HandleDeleteConfiguredIntegration(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := configIDParam(w, r)
	if !ok {
		return
	}

	if err := h.configService.DeleteConfiguredIntegration(r.Context(), p, id); err != nil {
		h.logger.Warn("[ConfigHandler] HandleDeleteConfiguredIntegration failed", zap.Int64("config_id", id), zap.Error(err))
		h.respondServiceError(w, err, "Failed to delete configured integration")
		return
	}

	httputil.RespondNoContent(w)
}

// HandleTestConfiguredIntegration handles POST /v1/configured-integrations/{configID}/test
func (h *ConfiguredIntegrationHandler) HandleTestConfiguredIntegration(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := configIDParam(w, r)
	if !ok {
		return
	}

	resp, err := h.configService.TestConfiguredIntegration(r.Context(), p, id)
	if err != nil {
		h.logger.Error("[ConfigHandler] HandleTestConfiguredIntegration failed", zap.Int64("config_id", id), zap.Error(err))
		h.respondServiceError(w, err, "Failed to test configured integration")
		return
	}

	// A failed connection test is still a successful request.
	httputil.RespondJSON(w, http.StatusOK, resp)
}
