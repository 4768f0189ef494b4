// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package hub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohandhobale/drivesync/pkg/adapter/websocket/hub"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

func serve(t *testing.T, h *hub.Hub) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.Serve(w, r, id)
		},
	))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id uuid.UUID) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id.String()
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) model.Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	typ, b, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, typ)
	var e model.Event
	require.NoError(t, json.Unmarshal(b, &e))
	return e
}

func TestFanOutPerShipment(t *testing.T) {
	h := hub.New(time.Second, 4)
	srv := serve(t, h)
	tracked, other := uuid.New(), uuid.New()
	c1 := dial(t, srv, tracked)
	c2 := dial(t, srv, tracked)
	c3 := dial(t, srv, other)
	require.Eventually(t, func() bool {
		return h.Subscribers(tracked) == 2 && h.Subscribers(other) == 1
	}, 5*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, h.Notify(ctx, model.Event{
		Type: model.EventLocationReported, ShipmentID: tracked,
	}))
	require.NoError(t, h.Notify(ctx, model.Event{
		Type: model.EventStatusChanged, ShipmentID: other,
	}))
	require.NoError(t, h.Notify(ctx, model.Event{
		Type: model.EventShipmentCreated, ShipmentID: uuid.New(),
	}))

	for _, c := range []*websocket.Conn{c1, c2} {
		e := readEvent(t, c)
		assert.Equal(t, tracked, e.ShipmentID)
		assert.Equal(t, model.EventLocationReported, e.Type)
	}
	e := readEvent(t, c3)
	assert.Equal(t, other, e.ShipmentID)
	assert.Equal(t, model.EventStatusChanged, e.Type)
}

func TestUnsubscribeOnClose(t *testing.T) {
	h := hub.New(time.Second, 4)
	srv := serve(t, h)
	id := uuid.New()
	c := dial(t, srv, id)
	require.Eventually(t, func() bool {
		return h.Subscribers(id) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool {
		return h.Subscribers(id) == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.NoError(t, h.Notify(context.Background(), model.Event{
		ShipmentID: id,
	}))
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := hub.New(time.Second, 4)
	srv := serve(t, h)
	id := uuid.New()
	c := dial(t, srv, id)
	require.Eventually(t, func() bool {
		return h.Subscribers(id) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Close())
	assert.Equal(t, 0, h.Subscribers(id))
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := c.ReadMessage()
	assert.Error(t, err, "server side must close the connection")
}
