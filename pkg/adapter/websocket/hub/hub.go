// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package hub pushes the committed shipment events to the websocket
// clients which are tracking those shipments. Each connection is
// subscribed to exactly one shipment. A client which does not consume
// its messages fast enough is disconnected instead of blocking others.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

type client struct {
	conn       *websocket.Conn
	shipmentID uuid.UUID
	send       chan []byte
}

// Hub implements the shipmentuc.Notifier port for websocket clients.
type Hub struct {
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	sendBuffer int

	mu   sync.RWMutex
	subs map[uuid.UUID]map[*client]struct{}
}

// New creates a Hub which pings its clients every `pingPeriod` and
// buffers up to `sendBuffer` pending messages per client. Origins are
// checked by the CORS settings of the HTTP layer, so the upgrader
// accepts all of them.
func New(pingPeriod time.Duration, sendBuffer int) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingPeriod: pingPeriod,
		sendBuffer: sendBuffer,
		subs:       make(map[uuid.UUID]map[*client]struct{}),
	}
}

// Serve upgrades the `r` request and streams the events of the
// shipmentID shipment until the client goes away. The caller must
// authorize the request beforehand. On upgrade failures, a response
// is already written by the upgrader.
func (h *Hub) Serve(
	w http.ResponseWriter, r *http.Request, shipmentID uuid.UUID,
) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrading to websocket: %w", err)
	}
	c := &client{
		conn:       conn,
		shipmentID: shipmentID,
		send:       make(chan []byte, h.sendBuffer),
	}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
	h.unregister(c)
	return nil
}

// Subscribers returns the number of clients tracking the `id`
// shipment.
func (h *Hub) Subscribers(id uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

// Notify queues `e` for every client of its shipment.
func (h *Hub) Notify(ctx context.Context, e model.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	var slow []*client
	h.mu.RLock()
	for c := range h.subs[e.ShipmentID] {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		log.Warn(ctx, "dropping slow websocket client",
			log.UUID("shipmentId", c.shipmentID),
			slog.String("remote", c.conn.RemoteAddr().String()),
		)
		h.unregister(c)
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.subs {
		for c := range clients {
			close(c.send)
		}
		delete(h.subs, id)
	}
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.subs[c.shipmentID]
	if !ok {
		clients = make(map[*client]struct{})
		h.subs[c.shipmentID] = clients
	}
	clients[c] = struct{}{}
}

// unregister removes `c` and closes its send channel, so its write
// pump finishes. It is a no-op for an already removed client.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.subs[c.shipmentID]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.subs, c.shipmentID)
	}
	close(c.send)
}

// readPump only processes the control frames. Clients are not
// expected to send data messages.
func (h *Hub) readPump(c *client) {
	pongWait := h.pingPeriod * 10 / 9
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
