package consumerWorker

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog"

	"clubhub/internal/notify"
)

type consumer interface {
	Consume(ctx context.Context, handler func([]byte) error) (<-chan struct{}, error)
}

type broadcaster interface {
	Broadcast(env notify.Envelope) int
}

// Reader moves club events from the relay queue into the hub.
type Reader struct {
	RMQ    consumer
	hub    broadcaster
	log    *zerolog.Logger
	done   chan struct{}
	cancel context.CancelFunc
	lost   atomic.Bool
}

func NewReader(rmq consumer, hub broadcaster, log *zerolog.Logger) *Reader {
	return &Reader{
		RMQ:  rmq,
		hub:  hub,
		log:  log,
		done: make(chan struct{}),
	}
}

// Handle decodes one delivery. Undecodable messages are logged and acked;
// requeueing them would only loop.
func (r *Reader) Handle(body []byte) error {
	var env notify.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		r.log.Error().
			Err(err).
			Msgf("Failed to unmarshal club event: %s", string(body))
		return nil
	}
	if env.Event == "" || env.ClubID <= 0 {
		r.log.Warn().
			Str("event", env.Event).
			Int64("club_id", env.ClubID).
			Msg("Dropping club event without event name or club")
		return nil
	}

	delivered := r.hub.Broadcast(env)
	r.log.Debug().
		Str("event", env.Event).
		Int64("club_id", env.ClubID).
		Int("subscribers", delivered).
		Msg("Club event relayed")
	return nil
}

// Start begins consuming. The reader finishes when ctx is cancelled, Stop is
// called or the broker stops delivering; only the last marks it dead.
func (r *Reader) Start(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	stopped, err := r.RMQ.Consume(cctx, r.Handle)
	if err != nil {
		cancel()
		r.lost.Store(true)
		close(r.done)
		r.log.Error().Err(err).Msg("Failed to start consuming")
		return err
	}
	r.log.Info().Msg("Relay reader started")

	go func() {
		defer close(r.done)
		select {
		case <-cctx.Done():
			r.log.Info().Msg("Relay reader stopped by context")
		case <-stopped:
			if cctx.Err() != nil {
				r.log.Info().Msg("Relay reader stopped by context")
				return
			}
			r.lost.Store(true)
			r.log.Error().Msg("Relay reader lost its broker delivery channel")
		}
	}()
	return nil
}

// Done is closed once the reader has finished.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Alive reports false once consuming failed to start or the broker closed
// the delivery channel. Stopping the reader does not change it.
func (r *Reader) Alive() bool {
	return !r.lost.Load()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
