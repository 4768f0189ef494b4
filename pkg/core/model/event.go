// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a committed change of a shipment.
type EventType string

// Known event types.
const (
	EventShipmentCreated  EventType = "shipment.created"
	EventRequestSubmitted EventType = "request.submitted"
	EventRequestResolved  EventType = "request.resolved"
	EventDriverAssigned   EventType = "shipment.assigned"
	EventLocationsPlanned EventType = "shipment.locations_planned"
	EventLocationReported EventType = "shipment.location_reported"
	EventStatusChanged    EventType = "shipment.status_changed"
)

// Event describes one committed shipment change. It carries the full
// shipment state after the change, so consumers do not need to query
// it again. RequestID is only set for the request related events.
type Event struct {
	Type       EventType  `json:"type"`
	ShipmentID uuid.UUID  `json:"shipmentId"`
	RequestID  *uuid.UUID `json:"requestId,omitempty"`
	ActorID    uuid.UUID  `json:"actorId"`
	At         time.Time  `json:"at"`
	Shipment   Shipment   `json:"shipment"`
}
