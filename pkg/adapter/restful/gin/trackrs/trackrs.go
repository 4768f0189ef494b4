// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package trackrs realizes the live tracking resource. After the
// caller is authorized to see a shipment, the connection is upgraded
// to a websocket which streams the events of that shipment.
package trackrs

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/middleware"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/serdser"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// Tracker streams the events of one shipment over an upgraded
// connection until the client goes away.
type Tracker interface {
	Serve(w http.ResponseWriter, r *http.Request, id uuid.UUID) error
}

// Viewer authorizes the caller to see a shipment, as the Get use case
// of shipmentuc does.
type Viewer interface {
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (
		*model.ShipmentView, error,
	)
}

type resource struct {
	viewer  Viewer
	tracker Tracker
}

// Register adds the GET shipments/:id/track websocket endpoint.
func Register(r *gin.RouterGroup, v Viewer, t Tracker) {
	rs := &resource{viewer: v, tracker: t}
	r.GET("shipments/:id/track", rs.Track)
}

func (rs *resource) Track(c *gin.Context) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return
	}
	if _, err := rs.viewer.Get(c, middleware.Principal(c), id); err != nil {
		serdser.SerErr(c, err)
		return
	}
	if err := rs.tracker.Serve(c.Writer, c.Request, id); err != nil {
		log.Info(c, "tracking was not started", log.Err("err", err))
	}
}
