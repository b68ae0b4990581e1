package api

import (
	"os"
	"testing"
	"time"
)

// Runs only when REDIS_URL points at a reachable server.
func TestRedisBrokerRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	b, err := NewRedisBroker(url, nil)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer b.Close()

	tenant := "t_redis_" + time.Now().Format("150405.000")
	ch := b.Subscribe(tenant)
	b.Publish(tenant, Event{Type: EventCoverageChecked, Data: map[string]any{"zoneId": "Z1"}})
	select {
	case got := <-ch:
		if got.Type != EventCoverageChecked || got.Data["zoneId"] != "Z1" {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for redis event")
	}
	b.Unsubscribe(tenant, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel close after unsubscribe")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestRedisBrokerBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url", nil); err == nil {
		t.Fatal("expected parse error")
	}
}
