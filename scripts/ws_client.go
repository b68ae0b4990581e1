// Package main runs a demo WebSocket client for tenant events: it subscribes
// to /v1/events/ws, then triggers a path computation and a coverage check so
// both event types arrive on the socket.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log, _ := zap.NewDevelopment()
	defer func() { _ = log.Sync() }()

	port := env("PORT", "8080")
	tenant := env("TENANT", "t_demo")
	source, target := env("SOURCE_NODE", "pop-north"), env("TARGET_NODE", "drop-17")
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", tenant)
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial", zap.Error(err))
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Info("read closed", zap.Error(err))
				return
			}
			log.Info("WS <-", zap.String("type", m.Type), zap.String("event", m.Event), zap.ByteString("payload", m.Payload))
		}
	}()

	body, _ := json.Marshal(map[string]any{"sourceNodeId": source, "targetNodeId": target, "maxHops": 6})
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/paths", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", tenant)
	req.Header.Set("X-Role", "operator")
	if resp, err := http.DefaultClient.Do(req); err != nil {
		log.Fatal("compute path", zap.Error(err))
	} else {
		log.Info("POST /v1/paths", zap.Int("status", resp.StatusCode))
		_ = resp.Body.Close()
	}

	covReq, _ := http.NewRequest(http.MethodGet, base+"/v1/coverage?lat="+env("LAT", "40.7128")+"&lng="+env("LNG", "-74.0060"), nil)
	covReq.Header.Set("X-Tenant-Id", tenant)
	if resp, err := http.DefaultClient.Do(covReq); err == nil {
		log.Info("GET /v1/coverage", zap.Int("status", resp.StatusCode))
		_ = resp.Body.Close()
	}

	// Wait briefly to receive the events
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
