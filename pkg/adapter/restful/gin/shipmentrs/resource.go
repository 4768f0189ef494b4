// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package shipmentrs realizes the shipments resource, allowing the
// shipment lifecycle REST APIs to be accepted and delegated to the
// shipments use cases respectively.
package shipmentrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/middleware"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/serdser"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
)

type resource struct {
	shipments *shipmentuc.UseCase
}

// Register instantiates a resource adapting the shipments use case
// instance with the relevant REST APIs. The `r` group must be behind
// the middleware.Authenticate middleware.
//
//   - POST shipments creates a shipment (business),
//   - GET shipments/business lists the caller shipments (business),
//   - GET shipments/driver lists the assigned shipments (driver),
//   - GET shipments/city/:city lists pending shipments (driver),
//   - GET shipments/:id fetches one shipment,
//   - POST shipments/:id/request submits a request (driver),
//   - PATCH shipments/:id/request/:requestId resolves it (business),
//   - PATCH shipments/:id/locations plans locations (business),
//   - PATCH shipments/:id/current-location reports it (driver),
//   - PATCH shipments/:id/status moves the shipment status.
func Register(r *gin.RouterGroup, shipments *shipmentuc.UseCase) {
	rs := &resource{shipments: shipments}
	r.POST("shipments", rs.Create)
	r.GET("shipments/business", rs.ListForBusiness)
	r.GET("shipments/driver", rs.ListForDriver)
	r.GET("shipments/city/:city", rs.ListPendingInCity)
	r.GET("shipments/:id", rs.Get)
	r.POST("shipments/:id/request", rs.SubmitRequest)
	r.PATCH("shipments/:id/request/:requestId", rs.ResolveRequest)
	r.PATCH("shipments/:id/locations", rs.SetPlannedLocations)
	r.PATCH("shipments/:id/current-location", rs.ReportLocation)
	r.PATCH("shipments/:id/status", rs.UpdateStatus)
}

func respond(c *gin.Context, code int, v any, err error) {
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(code, v)
}

func (rs *resource) Create(c *gin.Context) {
	d, ok := dserCreateReq(c)
	if !ok {
		return
	}
	v, err := rs.shipments.Create(c, middleware.Principal(c), d)
	respond(c, http.StatusCreated, v, err)
}

func (rs *resource) ListForBusiness(c *gin.Context) {
	vs, err := rs.shipments.ListForBusiness(c, middleware.Principal(c))
	respond(c, http.StatusOK, nonNil(vs), err)
}

func (rs *resource) ListForDriver(c *gin.Context) {
	vs, err := rs.shipments.ListForDriver(c, middleware.Principal(c))
	respond(c, http.StatusOK, nonNil(vs), err)
}

func (rs *resource) ListPendingInCity(c *gin.Context) {
	vs, err := rs.shipments.ListPendingInCity(
		c, middleware.Principal(c), c.Param("city"),
	)
	respond(c, http.StatusOK, nonNil(vs), err)
}

func (rs *resource) Get(c *gin.Context) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := rs.shipments.Get(c, middleware.Principal(c), id)
	respond(c, http.StatusOK, v, err)
}

func (rs *resource) SubmitRequest(c *gin.Context) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := rs.shipments.SubmitRequest(c, middleware.Principal(c), id)
	respond(c, http.StatusCreated, v, err)
}

func (rs *resource) ResolveRequest(c *gin.Context) {
	req, ok := dserResolveReq(c)
	if !ok {
		return
	}
	v, err := rs.shipments.ResolveRequest(
		c, middleware.Principal(c), req.id, req.rid, req.decision,
	)
	respond(c, http.StatusOK, v, err)
}

func (rs *resource) SetPlannedLocations(c *gin.Context) {
	req, ok := dserLocationsReq(c)
	if !ok {
		return
	}
	v, err := rs.shipments.SetPlannedLocations(
		c, middleware.Principal(c), req.id, req.pickup, req.dropoff,
	)
	respond(c, http.StatusOK, v, err)
}

func (rs *resource) ReportLocation(c *gin.Context) {
	req, ok := dserCurrentLocationReq(c)
	if !ok {
		return
	}
	v, err := rs.shipments.ReportLocation(
		c, middleware.Principal(c), req.id, req.loc,
	)
	respond(c, http.StatusOK, v, err)
}

func (rs *resource) UpdateStatus(c *gin.Context) {
	req, ok := dserStatusReq(c)
	if !ok {
		return
	}
	v, err := rs.shipments.UpdateStatus(
		c, middleware.Principal(c), req.id, req.status, req.loc,
	)
	respond(c, http.StatusOK, v, err)
}

// nonNil makes empty listings render as [] instead of null.
func nonNil(vs []model.ShipmentView) []model.ShipmentView {
	if vs == nil {
		return []model.ShipmentView{}
	}
	return vs
}
