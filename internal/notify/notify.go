// Package notify defines the events the API pushes to connected club
// dashboards and the producer that ships them to the relay.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	EventRegistration          = "registration"
	EventDeletionRequestStatus = "deletionRequestStatus"
)

// Envelope is the wire shape on the exchange and on the SSE stream.
type Envelope struct {
	Event   string          `json:"event"`
	ClubID  int64           `json:"club_id"`
	Payload json.RawMessage `json:"payload"`
}

type Registration struct {
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

type DeletionRequestStatus struct {
	RequestID   int64     `json:"requestId"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	TargetID    int64     `json:"targetId"`
	RequestedBy int64     `json:"requestedBy"`
	ApprovedBy  int64     `json:"approvedBy"`
	ApprovedAt  time.Time `json:"approvedAt"`
}

//go:generate mockgen -destination=mocks/publisher.go -package=mocks clubhub/internal/notify Publisher

// Publisher emits club events. Delivery is best effort: callers log a
// returned error and carry on.
type Publisher interface {
	Publish(ctx context.Context, clubID int64, event string, payload any) error
}

func NewEnvelope(clubID int64, event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Event: event, ClubID: clubID, Payload: raw}, nil
}

const routingPrefix = "club."

// BindingKey matches every club room.
const BindingKey = routingPrefix + "*"

func RoutingKey(clubID int64) string {
	return routingPrefix + strconv.FormatInt(clubID, 10)
}
