package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/villa-bookings/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("villa-bookings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NopBus logs events instead of sending them. Used when NATS_URL is unset.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopBus) Close() error { return nil }

const (
	HoldCreated              = "villa.hold.created"
	ReservationCreated       = "villa.reservation.created"
	ReservationStatusChanged = "villa.reservation.status_changed"
	HoldsExpired             = "villa.hold.expired"
	BlockCreated             = "villa.block.created"
	BlockDeleted             = "villa.block.deleted"
	CustomPricingUpdated     = "villa.pricing.updated"
	CustomPricingDeleted     = "villa.pricing.deleted"
)

type HoldCreatedEvent struct {
	ReservationID string    `json:"reservation_id"`
	PropertyID    string    `json:"property_id"`
	UserID        string    `json:"user_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Total         int64     `json:"total"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}

type ReservationCreatedEvent struct {
	ReservationID string `json:"reservation_id"`
	PropertyID    string `json:"property_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Status        string `json:"status"`
	Total         int64  `json:"total"`
	Source        string `json:"source"`
}

type ReservationStatusChangedEvent struct {
	ReservationID string    `json:"reservation_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Reason        string    `json:"reason,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}

type HoldsExpiredEvent struct {
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}

type BlockEvent struct {
	BlockID    string `json:"block_id"`
	PropertyID string `json:"property_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason,omitempty"`
}

type CustomPricingEvent struct {
	PropertyID string   `json:"property_id"`
	Dates      []string `json:"dates"`
}
