package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clubhub/internal/auth"
	"clubhub/internal/notify"
)

func envelope(t *testing.T, clubID int64, event string, payload any) notify.Envelope {
	t.Helper()
	env, err := notify.NewEnvelope(clubID, event, payload)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestHubRoomsAreIsolated(t *testing.T) {
	log := zerolog.Nop()
	hub := NewHub(4, &log)
	a1 := hub.Subscribe(1)
	a2 := hub.Subscribe(1)
	b := hub.Subscribe(2)

	n := hub.Broadcast(envelope(t, 1, notify.EventRegistration, notify.Registration{Role: "member", FullName: "Lea"}))
	if n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}
	for _, sub := range []*Subscriber{a1, a2} {
		select {
		case env := <-sub.C:
			if env.Event != notify.EventRegistration || env.ClubID != 1 {
				t.Errorf("env = %+v", env)
			}
		default:
			t.Error("club 1 subscriber got nothing")
		}
	}
	select {
	case env := <-b.C:
		t.Errorf("club 2 received %+v", env)
	default:
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	log := zerolog.Nop()
	hub := NewHub(1, &log)
	sub := hub.Subscribe(1)

	env := envelope(t, 1, notify.EventRegistration, notify.Registration{})
	if n := hub.Broadcast(env); n != 1 {
		t.Fatalf("first delivered = %d", n)
	}
	if n := hub.Broadcast(env); n != 0 {
		t.Fatalf("second delivered = %d, want 0", n)
	}
	if sub.Dropped() != 1 {
		t.Errorf("dropped = %d", sub.Dropped())
	}
}

func TestHubUnsubscribe(t *testing.T) {
	log := zerolog.Nop()
	hub := NewHub(0, &log)
	sub := hub.Subscribe(3)
	if hub.Count(3) != 1 {
		t.Fatalf("count = %d", hub.Count(3))
	}
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	if hub.Count(3) != 0 {
		t.Errorf("count after unsubscribe = %d", hub.Count(3))
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel still open")
	}
	if n := hub.Broadcast(envelope(t, 3, notify.EventRegistration, notify.Registration{})); n != 0 {
		t.Errorf("delivered to closed subscriber: %d", n)
	}
}

func newServer(t *testing.T, hub *Hub, tokens *auth.Tokens) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	r := gin.New()
	r.GET("/v1/clubs/:clubId/events", Stream(hub, tokens, time.Hour, &log))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamRejects(t *testing.T) {
	log := zerolog.Nop()
	tokens := auth.NewTokens("secret", time.Hour)
	srv := newServer(t, NewHub(0, &log), tokens)

	otherClub, err := tokens.Generate(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name   string
		path   string
		status int
	}{
		{"no token", "/v1/clubs/1/events", http.StatusUnauthorized},
		{"bad token", "/v1/clubs/1/events?access_token=nope", http.StatusUnauthorized},
		{"other club", "/v1/clubs/1/events?access_token=" + otherClub, http.StatusForbidden},
		{"bad club id", "/v1/clubs/x/events?access_token=" + otherClub, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestStreamDeliversClubEvents(t *testing.T) {
	log := zerolog.Nop()
	hub := NewHub(0, &log)
	tokens := auth.NewTokens("secret", time.Hour)
	srv := newServer(t, hub, tokens)

	raw, err := tokens.Generate(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/clubs/1/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		t.Helper()
		var event, data string
		for {
			line, err := lines.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && event != "":
				return event, data
			}
		}
	}

	if ev, _ := readEvent(); ev != "ready" {
		t.Fatalf("first event = %q", ev)
	}
	if hub.Count(1) != 1 {
		t.Fatalf("subscribers = %d", hub.Count(1))
	}

	hub.Broadcast(envelope(t, 2, notify.EventRegistration, notify.Registration{Role: "member", FullName: "Other"}))
	hub.Broadcast(envelope(t, 1, notify.EventDeletionRequestStatus, notify.DeletionRequestStatus{
		RequestID: 7, Status: "approved", Type: "transaction", TargetID: 42, RequestedBy: 3, ApprovedBy: 1,
	}))

	ev, data := readEvent()
	if ev != notify.EventDeletionRequestStatus {
		t.Fatalf("event = %q", ev)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("data %q: %v", data, err)
	}
	if got["requestId"] != float64(7) || got["status"] != "approved" || got["targetId"] != float64(42) {
		t.Errorf("payload = %v", got)
	}
}
