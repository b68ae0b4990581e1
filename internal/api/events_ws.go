package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	defaultWSPingInterval = 20 * time.Second
	defaultWSPongWait     = 60 * time.Second
	wsWriteWait           = 10 * time.Second
)

// WSKeepalive sets the WebSocket control-ping cadence. A connection that
// sends no pong or message for PongWait is dropped. Zero fields use the
// defaults (20s ping, 60s wait).
type WSKeepalive struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

func (k WSKeepalive) withDefaults() WSKeepalive {
	if k.PingInterval <= 0 {
		k.PingInterval = defaultWSPingInterval
	}
	if k.PongWait <= 0 {
		k.PongWait = defaultWSPongWait
	}
	return k
}

type wsMessage struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// typeFilter builds a predicate from ?types=a,b. No parameter admits all.
func typeFilter(q url.Values) func(string) bool {
	raw := strings.TrimSpace(q.Get("types"))
	if raw == "" {
		return func(string) bool { return true }
	}
	allow := map[string]struct{}{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			allow[t] = struct{}{}
		}
	}
	return func(t string) bool {
		_, ok := allow[t]
		return ok
	}
}

// EventsWSHandler handles /v1/events/ws. After connection_ack the server
// pushes {"type":"event","event":<type>,"payload":<data>} frames for the
// caller's tenant until either side closes.
func (s *Server) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	filter := typeFilter(r.URL.Query())
	ka := s.Keepalive.withDefaults()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// gorilla connections allow one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}
	ping := func() error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
	}

	ch := s.Broker.Subscribe(tenant)
	defer s.Broker.Unsubscribe(tenant, ch)
	if err := write(wsMessage{Type: "connection_ack"}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(ka.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if !filter(evt.Type) {
					continue
				}
				payload, _ := json.Marshal(evt.Data)
				if err := write(wsMessage{Type: "event", Event: evt.Type, Payload: payload}); err != nil {
					s.Log.Debug("ws write failed", zap.String("tenant", tenant), zap.Error(err))
					return
				}
			case <-ticker.C:
				if err := ping(); err != nil {
					s.Log.Debug("ws ping failed", zap.String("tenant", tenant), zap.Error(err))
					return
				}
			}
		}
	}()
	defer close(done)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(ka.PongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(ka.PongWait)) })
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(ka.PongWait))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "complete":
			return
		}
	}
}
