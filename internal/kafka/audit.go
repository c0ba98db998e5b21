package kafka

import (
	"context"
	"errors"

	"coupon-service/internal/logger"
	"coupon-service/internal/metrics"
	"coupon-service/internal/models"
)

// RegisterAuditHandlers подписывает consumer на события купонов и пишет их в
// журнал аудита.
func RegisterAuditHandlers(c *Consumer, log *logger.Logger) {
	audit := func(ctx context.Context, event *models.Event) error {
		if event == nil {
			return errors.New("empty event")
		}
		metrics.EventsConsumed.WithLabelValues(string(event.Type)).Inc()

		entry := log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
			"event_time": event.Timestamp,
		})
		if couponID, ok := event.Data["couponId"]; ok {
			entry = entry.WithField("coupon_id", couponID)
		}
		entry.Info("Coupon event audited")
		return nil
	}

	c.RegisterHandler(models.EventTypeCouponCreated, audit)
	c.RegisterHandler(models.EventTypeCouponDeleted, audit)
}
