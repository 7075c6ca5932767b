package consumerWorker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clubhub/internal/notify"
)

type recordingHub struct {
	got []notify.Envelope
}

func (h *recordingHub) Broadcast(env notify.Envelope) int {
	h.got = append(h.got, env)
	return 1
}

type fakeQueue struct {
	handler func([]byte) error
	err     error
	stopped chan struct{}
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{stopped: make(chan struct{})}
}

func (q *fakeQueue) Consume(_ context.Context, handler func([]byte) error) (<-chan struct{}, error) {
	q.handler = handler
	if q.err != nil {
		return nil, q.err
	}
	return q.stopped, nil
}

func TestReaderRelaysEnvelopes(t *testing.T) {
	log := zerolog.Nop()
	hub := &recordingHub{}
	queue := newFakeQueue()
	r := NewReader(queue, hub, &log)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	bodies := [][]byte{
		[]byte(`{"event":"registration","club_id":4,"payload":{"role":"member","fullName":"Lea"}}`),
		[]byte(`not json`),
		[]byte(`{"event":"","club_id":4}`),
		[]byte(`{"event":"registration","club_id":0}`),
	}
	for _, b := range bodies {
		if err := queue.handler(b); err != nil {
			t.Errorf("handler(%s) = %v, want ack", b, err)
		}
	}

	if len(hub.got) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(hub.got))
	}
	if env := hub.got[0]; env.Event != notify.EventRegistration || env.ClubID != 4 || string(env.Payload) != `{"role":"member","fullName":"Lea"}` {
		t.Errorf("env = %+v", env)
	}
}

func TestReaderStartFailure(t *testing.T) {
	log := zerolog.Nop()
	r := NewReader(&fakeQueue{err: errors.New("no queue bound")}, &recordingHub{}, &log)
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded without a queue")
	}
	r.Stop()
	if r.Alive() {
		t.Error("reader alive after failed start")
	}
}

func TestReaderBrokerChannelClosed(t *testing.T) {
	log := zerolog.Nop()
	queue := newFakeQueue()
	r := NewReader(queue, &recordingHub{}, &log)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.Alive() {
		t.Fatal("reader not alive after start")
	}

	close(queue.stopped)
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after the broker channel closed")
	}
	if r.Alive() {
		t.Error("reader still alive after the broker channel closed")
	}
	r.Stop()
}

func TestReaderStopStaysAlive(t *testing.T) {
	log := zerolog.Nop()
	queue := newFakeQueue()
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReader(queue, &recordingHub{}, &log)
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}

	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after cancel")
	}
	// A consumer that exits on cancel closes its channel too.
	close(queue.stopped)
	r.Stop()
	if !r.Alive() {
		t.Error("reader marked dead after a requested stop")
	}
}
