package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// sender is the part of the RabbitMQ client the producer needs.
type sender interface {
	Publish(ctx context.Context, routingKey string, message []byte) error
}

type RabbitPublisher struct {
	rbt     sender
	timeout time.Duration
	log     *zerolog.Logger
}

func NewRabbitPublisher(rbt sender, timeout time.Duration, log *zerolog.Logger) *RabbitPublisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RabbitPublisher{rbt: rbt, timeout: timeout, log: log}
}

func (p *RabbitPublisher) Publish(ctx context.Context, clubID int64, event string, payload any) error {
	env, err := NewEnvelope(clubID, event, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// The publish outlives a cancelled request; only the timeout bounds it.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.rbt.Publish(pctx, RoutingKey(clubID), body); err != nil {
		return fmt.Errorf("publish %s to club %d: %w", event, clubID, err)
	}

	p.log.Debug().Str("event", event).Int64("club_id", clubID).Msg("club event published")
	return nil
}
