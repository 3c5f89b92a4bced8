package services

import (
	"codereview-backend/internal/auth"
	"codereview-backend/internal/hooks"
	"codereview-backend/internal/integrations"
	"codereview-backend/internal/metrics"
	api_models "codereview-backend/internal/models"
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// deliveryTimeout bounds each call into a third-party service.
const deliveryTimeout = 10 * time.Second

// NotificationService forwards review activity to running notifier integrations.
type NotificationService struct {
	manager *integrations.Manager
	logger  *zap.Logger
}

func NewNotificationService(m *integrations.Manager, logger *zap.Logger) *NotificationService {
	return &NotificationService{manager: m, logger: logger}
}

// Dispatch delivers the event to every running Notifier whose scope covers
// the event: global configurations always, local ones only for events of
// their own site. One failing delivery never stops the others.
func (s *NotificationService) Dispatch(ctx context.Context, p auth.Principal, req api_models.ReviewEventRequest) (*api_models.ReviewEventResponse, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		return nil, fmt.Errorf("%w: type cannot be empty", ErrValidation)
	}
	if req.LocalSiteID != nil && !p.IsGlobalAdmin() && !p.InLocalSite(*req.LocalSiteID) {
		return nil, ErrPermissionDenied
	}
	if req.LocalSiteID == nil && p.LocalSiteID != nil {
		req.LocalSiteID = p.LocalSiteID
	}

	event := integration_models.ReviewEvent{
		Type:          req.Type,
		ReviewRequest: req.ReviewRequest,
		Summary:       req.Summary,
		URL:           req.URL,
		Actor:         req.Actor,
	}

	resp := &api_models.ReviewEventResponse{Deliveries: []api_models.ReviewEventDelivery{}}
	for _, entry := range s.manager.GetConfigInstances("") {
		if !entry.IsRunning() {
			continue
		}
		if !entry.Config.IsGlobal() && (req.LocalSiteID == nil || *entry.Config.LocalSiteID != *req.LocalSiteID) {
			continue
		}
		notifier, ok := entry.Integration.(integrations.Notifier)
		if !ok {
			continue
		}

		result := hooks.Invoke(func() (struct{}, error) {
			deliveryCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
			defer cancel()
			return struct{}{}, notifier.Notify(deliveryCtx, event)
		})

		delivery := api_models.ReviewEventDelivery{
			ConfigID:      entry.ID(),
			IntegrationID: entry.Descriptor.ID,
			Delivered:     result.OK(),
		}
		if !result.OK() {
			delivery.Error = result.Err.Error()
			s.logger.Warn("[NotificationService] Dispatch: Delivery failed",
				zap.Int64("config_id", entry.ID()), zap.String("integration_id", entry.Descriptor.ID), zap.Error(result.Err))
		}
		metrics.EventDeliveries.WithLabelValues(entry.Descriptor.ID, metrics.Result(result.Err)).Inc()
		resp.Deliveries = append(resp.Deliveries, delivery)
	}

	s.logger.Info("[NotificationService] Dispatch: Review event dispatched",
		zap.String("type", event.Type), zap.Int64("review_request_id", event.ReviewRequest), zap.Int("deliveries", len(resp.Deliveries)))
	return resp, nil
}
