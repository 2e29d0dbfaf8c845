// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broadcaster

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/capalert/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CAP alerts are public safety data with no per-client session state;
	// the dashboard is the only consumer we need to allow cross-origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades r to a websocket connection and streams every event the
// hub publishes to it until the connection closes or ctx is canceled. It
// registers one subscriber per connection and unsubscribes on return.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("broadcaster: websocket upgrade failed")
		return
	}

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, events, done)
}

// readPump drains client->server traffic (pings and close frames) so the
// connection's read deadline keeps advancing; this bridge never expects
// application-level messages from subscribers.
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards events to the client and sends periodic pings until
// the channel closes (subscriber removed), the connection errors, or the
// peer disconnects (signaled by done from readPump).
func writePump(conn *websocket.Conn, events <-chan Event, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
