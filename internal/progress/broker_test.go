package progress

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()
	ch1 := b.Subscribe("E1")
	ch2 := b.Subscribe("E1")
	other := b.Subscribe("E2")

	b.Publish("E1", Event{Instance: "E1", Iteration: 5})
	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Iteration != 5 {
				t.Fatalf("wrong event: %+v", evt)
			}
		default:
			t.Fatalf("subscriber missed the event")
		}
	}
	select {
	case evt := <-other:
		t.Fatalf("cross-instance leak: %+v", evt)
	default:
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("E1")
	for i := 0; i < 20; i++ {
		b.Publish("E1", Event{Iteration: i})
	}
	// buffered at 8; the rest must have been dropped without blocking
	if n := len(ch); n != 8 {
		t.Fatalf("buffered events: got %d, want 8", n)
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("E1")
	b.Unsubscribe("E1", ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel must be closed after unsubscribe")
	}
	// publishing after the last subscriber left must not panic
	b.Publish("E1", Event{})
}

func TestPublisherThrottles(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("E1")
	p := NewPublisher(b, "E1", 1)
	for i := 0; i < 50; i++ {
		p.Publish(i, 10, 5, 2)
	}
	if n := len(ch); n != 1 {
		t.Fatalf("throttled publishes: got %d, want 1", n)
	}
	evt := <-ch
	if evt.Instance != "E1" || evt.Best != 5 || evt.Routes != 2 || evt.TS.IsZero() {
		t.Fatalf("bad event: %+v", evt)
	}
}

func TestWSHandlerStreams(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(&WSHandler{Broker: b})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?instance=E1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// the subscription is registered during the handshake handler; give the
	// handler a moment to reach its select loop
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Publish("E1", Event{Instance: "E1", Iteration: 3, Best: 42})
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var evt Event
		if err := conn.ReadJSON(&evt); err == nil {
			if evt.Iteration != 3 || evt.Best != 42 {
				t.Fatalf("bad event: %+v", evt)
			}
			return
		}
	}
	t.Fatalf("no event received")
}

func TestWSHandlerRequiresInstance(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(&WSHandler{Broker: b})
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
}
