// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentrs

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/serdser"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

type rawLocation struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (l *rawLocation) toModel() *model.Location {
	if l == nil {
		return nil
	}
	return &model.Location{Lat: *l.Lat, Lng: *l.Lng}
}

// deadline accepts a calendar date (as sent by date inputs) or a full
// RFC 3339 timestamp. Dates are taken as midnight UTC.
type deadline time.Time

var deadlineLayouts = []string{time.DateOnly, time.RFC3339Nano}

func (d *deadline) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("deadline must be a string")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = deadline(t)
			return nil
		}
	}
	return fmt.Errorf(
		"deadline %q is neither YYYY-MM-DD nor an RFC 3339 time", s,
	)
}

type rawCreateReq struct {
	Title           string       `json:"title" binding:"required"`
	FromCity        string       `json:"fromCity" binding:"required"`
	ToCity          string       `json:"toCity" binding:"required"`
	Description     string       `json:"description"`
	Deadline        *deadline    `json:"deadline" binding:"required"`
	Weight          float64      `json:"weight" binding:"required"`
	Volume          string       `json:"volume" binding:"required"`
	Cost            float64      `json:"cost"`
	PickupLocation  *rawLocation `json:"pickupLocation"`
	DropoffLocation *rawLocation `json:"dropoffLocation"`
}

func dserCreateReq(c *gin.Context) (model.ShipmentDraft, bool) {
	req := &rawCreateReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return model.ShipmentDraft{}, false
	}
	return model.ShipmentDraft{
		Title:           req.Title,
		FromCity:        req.FromCity,
		ToCity:          req.ToCity,
		Description:     req.Description,
		Deadline:        time.Time(*req.Deadline),
		Weight:          req.Weight,
		Volume:          req.Volume,
		Cost:            req.Cost,
		PickupLocation:  req.PickupLocation.toModel(),
		DropoffLocation: req.DropoffLocation.toModel(),
	}, true
}

type rawResolveReq struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

type resolveReq struct {
	id, rid  uuid.UUID
	decision model.RequestStatus
}

func dserResolveReq(c *gin.Context) (*resolveReq, bool) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	rid, ok := serdser.ParseID(c, "requestId")
	if !ok {
		return nil, false
	}
	req := &rawResolveReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil, false
	}
	decision, err := model.ParseRequestStatus(req.Status)
	if err != nil {
		badField(c, "status", err)
		return nil, false
	}
	return &resolveReq{id: id, rid: rid, decision: decision}, true
}

type rawLocationsReq struct {
	PickupLocation  *rawLocation `json:"pickupLocation"`
	DropoffLocation *rawLocation `json:"dropoffLocation"`
}

type locationsReq struct {
	id              uuid.UUID
	pickup, dropoff *model.Location
}

func dserLocationsReq(c *gin.Context) (*locationsReq, bool) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	req := &rawLocationsReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil, false
	}
	return &locationsReq{
		id:      id,
		pickup:  req.PickupLocation.toModel(),
		dropoff: req.DropoffLocation.toModel(),
	}, true
}

type rawCurrentLocationReq struct {
	Location *rawLocation `json:"location" binding:"required"`
}

type currentLocationReq struct {
	id  uuid.UUID
	loc model.Location
}

func dserCurrentLocationReq(c *gin.Context) (*currentLocationReq, bool) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	req := &rawCurrentLocationReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil, false
	}
	return &currentLocationReq{id: id, loc: *req.Location.toModel()}, true
}

type rawStatusReq struct {
	Status   string       `json:"status" binding:"required"`
	Location *rawLocation `json:"location"`
}

type statusReq struct {
	id     uuid.UUID
	status model.ShipmentStatus
	loc    *model.Location
}

func dserStatusReq(c *gin.Context) (*statusReq, bool) {
	id, ok := serdser.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	req := &rawStatusReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil, false
	}
	status, err := model.ParseShipmentStatus(req.Status)
	if err != nil {
		badField(c, "status", err)
		return nil, false
	}
	return &statusReq{id: id, status: status, loc: req.Location.toModel()}, true
}

func badField(c *gin.Context, name string, err error) {
	var errs map[string][]string
	serdser.AddErr(&errs, name, err.Error())
	c.JSON(http.StatusBadRequest, errs)
}
