package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ispnet/internal/config"
	"ispnet/internal/metrics"
)

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}

func TestRateLimitPerTenant(t *testing.T) {
	s := New(seededStore(), NewBroker(), config.Config{RateRPS: 0.001, RateBurst: 1}, nil)
	h := s.Routes()
	before := testutil.ToFloat64(metrics.RateLimited)

	call := func(tenant, path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Tenant-Id", tenant)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if c := call("t_test", "/v1/coverage?lat=0.5&lng=0.5"); c != http.StatusOK {
		t.Fatalf("first call: %d", c)
	}
	if c := call("t_test", "/v1/coverage?lat=0.5&lng=0.5"); c != http.StatusTooManyRequests {
		t.Fatalf("second call: %d", c)
	}
	if c := call("t_other", "/v1/coverage?lat=0.5&lng=0.5"); c != http.StatusOK {
		t.Fatalf("other tenant shares budget: %d", c)
	}
	if c := call("t_test", "/healthz"); c != http.StatusOK {
		t.Fatalf("health must not be limited: %d", c)
	}
	if after := testutil.ToFloat64(metrics.RateLimited); after != before+1 {
		t.Fatalf("rate limited metric: before %v after %v", before, after)
	}
}

func TestTenantLimiterDisabled(t *testing.T) {
	var nilLimiter *TenantLimiter
	l := NewTenantLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("t") || !nilLimiter.Allow("t") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}

func TestRecovererAndMetrics(t *testing.T) {
	s := newTestServer(t)
	h := s.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("panic: got %d", rr.Code)
	}

	routes := s.Routes()
	req := httptest.NewRequest(http.MethodPost, "/v1/paths", strings.NewReader(`{"sourceNodeId":"N1","targetNodeId":"N3"}`))
	req.Header.Set("X-Tenant-Id", "t_test")
	routes.ServeHTTP(httptest.NewRecorder(), req)

	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"path_computations_total", `http_requests_total{method="POST",path="/v1/paths",status="200"}`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
}

func TestEventsStreamSSE(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events/stream?types="+EventCoverageChecked, nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %s", ct)
	}
	rd := bufio.NewReader(resp.Body)
	// heartbeat proves the subscription exists
	if line, _ := rd.ReadString('\n'); line != "event: heartbeat\n" {
		t.Fatalf("first line: %q", line)
	}
	s.Broker.Publish("t_test", Event{Type: EventPathComputed, Data: map[string]any{"found": true}})
	s.Broker.Publish("t_test", Event{Type: EventCoverageChecked, Data: map[string]any{"zoneId": "Z2"}})
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, "event: "+EventPathComputed) {
			t.Fatal("filtered event delivered")
		}
		if line == "event: "+EventCoverageChecked+"\n" {
			data, _ := rd.ReadString('\n')
			if !strings.Contains(data, `"zoneId":"Z2"`) {
				t.Fatalf("data: %q", data)
			}
			return
		}
	}
}

func TestEventsWebSocket(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_test")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/events/ws", hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "connection_ack" {
		t.Fatalf("ack: %+v %v", ack, err)
	}

	// a real request publishes the event
	req := httptest.NewRequest(http.MethodGet, "/v1/coverage?lat=0.5&lng=0.5", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.CoverageHandler(httptest.NewRecorder(), req)

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "event" || msg.Event != EventCoverageChecked || !strings.Contains(string(msg.Payload), `"zoneId":"Z2"`) {
		t.Fatalf("event: %+v %s", msg, msg.Payload)
	}

	if err := conn.WriteJSON(wsMessage{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" {
		t.Fatalf("pong: %+v %v", msg, err)
	}
}

func TestEventsWebSocketKeepsListenOnlyClient(t *testing.T) {
	s := newTestServer(t)
	s.Keepalive = WSKeepalive{PingInterval: 50 * time.Millisecond, PongWait: 300 * time.Millisecond}
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_test")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/events/ws", hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	pings := make(chan struct{}, 64)
	conn.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	frames := make(chan wsMessage, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			var m wsMessage
			if err := conn.ReadJSON(&m); err != nil {
				readErr <- err
				return
			}
			frames <- m
		}
	}()

	select {
	case m := <-frames:
		if m.Type != "connection_ack" {
			t.Fatalf("first frame: %+v", m)
		}
	case err := <-readErr:
		t.Fatalf("ack: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no ack")
	}

	// the client never writes a message; only pongs keep it alive
	select {
	case err := <-readErr:
		t.Fatalf("listen-only client dropped: %v", err)
	case <-time.After(time.Second):
	}
	if len(pings) == 0 {
		t.Fatal("server sent no control pings")
	}

	s.Broker.Publish("t_test", Event{Type: EventCoverageChecked, Data: map[string]any{"zoneId": "Z2"}})
	select {
	case m := <-frames:
		if m.Type != "event" || m.Event != EventCoverageChecked {
			t.Fatalf("event: %+v", m)
		}
	case err := <-readErr:
		t.Fatalf("read after idle period: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after idle period")
	}
}
