package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события жизненного цикла купона
type EventType string

const (
	EventTypeCouponCreated EventType = "coupon.created"
	EventTypeCouponDeleted EventType = "coupon.deleted"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
