// Package relay fans club events out to live dashboard connections.
package relay

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"clubhub/internal/notify"
)

const DefaultBuffer = 16

type Subscriber struct {
	C       <-chan notify.Envelope
	ch      chan notify.Envelope
	clubID  int64
	dropped atomic.Int64
}

func (s *Subscriber) ClubID() int64  { return s.clubID }
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Hub keeps one room per club. Delivery never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Subscriber]struct{}
	buffer int
	log    *zerolog.Logger
}

func NewHub(buffer int, log *zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		rooms:  make(map[int64]map[*Subscriber]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Subscribe(clubID int64) *Subscriber {
	ch := make(chan notify.Envelope, h.buffer)
	sub := &Subscriber{C: ch, ch: ch, clubID: clubID}

	h.mu.Lock()
	room, ok := h.rooms[clubID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[clubID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sub.clubID]
	if !ok {
		return
	}
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	close(sub.ch)
	if len(room) == 0 {
		delete(h.rooms, sub.clubID)
	}
}

// Broadcast delivers env to every subscriber of env.ClubID and returns how
// many received it.
func (h *Hub) Broadcast(env notify.Envelope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for sub := range h.rooms[env.ClubID] {
		select {
		case sub.ch <- env:
			delivered++
		default:
			n := sub.dropped.Add(1)
			h.log.Warn().
				Int64("club_id", env.ClubID).
				Str("event", env.Event).
				Int64("dropped_total", n).
				Msg("slow subscriber, event dropped")
		}
	}
	return delivered
}

func (h *Hub) Count(clubID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[clubID])
}
