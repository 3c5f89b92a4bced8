package handlers

import (
	"codereview-backend/internal/auth"
	api_models "codereview-backend/internal/models"
	"codereview-backend/internal/services"
	"codereview-backend/pkg/httputil"
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// NotificationService defines what the handler needs to fan events out.
type NotificationService interface {
	Dispatch(ctx context.Context, p auth.Principal, req api_models.ReviewEventRequest) (*api_models.ReviewEventResponse, error)
}

type ReviewEventHandler struct {
	notificationService NotificationService
	logger              *zap.Logger
}

func NewReviewEventHandler(notificationSvc NotificationService, logger *zap.Logger) *ReviewEventHandler {
	return &ReviewEventHandler{
		notificationService: notificationSvc,
		logger:              logger,
	}
}

// HandleReviewEvent handles POST /v1/review-events
func (h *ReviewEventHandler) HandleReviewEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromRequest(w, r)
	if !ok {
		return
	}

	var req api_models.ReviewEventRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.notificationService.Dispatch(r.Context(), p, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrPermissionDenied):
			httputil.RespondError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("[ReviewEventHandler] HandleReviewEvent failed", zap.String("type", req.Type), zap.Error(err))
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to dispatch review event")
		}
		return
	}

	// Individual delivery failures are reported in the body.
	httputil.RespondJSON(w, http.StatusAccepted, resp)
}
