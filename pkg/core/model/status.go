// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// ShipmentStatus specifies the lifecycle status enum of a shipment.
// Although this enum is numeric, it is (de)serialized as a string for
// readability, both in the REST API and in the database.
type ShipmentStatus int

// Valid values for the ShipmentStatus enum.
const (
	ShipmentStatusInvalid ShipmentStatus = iota // zero value is invalid

	ShipmentStatusPending   // posted and open for driver requests
	ShipmentStatusActive    // a driver is assigned
	ShipmentStatusPickedUp  // goods were loaded by the driver
	ShipmentStatusInTransit // on the road
	ShipmentStatusDelivered // terminal
	ShipmentStatusCancelled // terminal
)

// ErrUnknownShipmentStatus indicates that a given string may not be
// parsed as a valid/known shipment status. The invalid string itself is
// not included because the caller of ParseShipmentStatus knows it.
var ErrUnknownShipmentStatus = errors.New("unknown shipment status")

// ShipmentStatusError indicates an invalid numeric shipment status.
type ShipmentStatusError int

// Error implements the error interface, returning a string
// representation of the ShipmentStatusError.
func (e ShipmentStatusError) Error() string {
	return fmt.Sprintf("invalid shipment status: %d", e)
}

// shipmentTransitions lists the statuses which may follow each status.
// The pending to active transition is missing on purpose because it is
// only performed by accepting a driver request (see ResolveRequest).
// Delivered and cancelled statuses have no successor.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending: {ShipmentStatusCancelled},
	ShipmentStatusActive: {
		ShipmentStatusActive,
		ShipmentStatusPickedUp,
		ShipmentStatusInTransit,
		ShipmentStatusDelivered,
		ShipmentStatusCancelled,
	},
	ShipmentStatusPickedUp: {
		ShipmentStatusPickedUp,
		ShipmentStatusInTransit,
		ShipmentStatusDelivered,
		ShipmentStatusCancelled,
	},
	ShipmentStatusInTransit: {
		ShipmentStatusInTransit,
		ShipmentStatusDelivered,
		ShipmentStatusCancelled,
	},
}

// Validate returns nil if ShipmentStatus value is valid. For invalid
// values, an instance of the ShipmentStatusError will be returned.
func (s ShipmentStatus) Validate() error {
	switch s {
	case ShipmentStatusPending, ShipmentStatusActive,
		ShipmentStatusPickedUp, ShipmentStatusInTransit,
		ShipmentStatusDelivered, ShipmentStatusCancelled:
		return nil
	default:
		return ShipmentStatusError(s)
	}
}

// IsTerminal reports if no further status change may be applied.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// IsAssigned reports if the status may only be held by a shipment
// which has an assigned driver.
func (s ShipmentStatus) IsAssigned() bool {
	switch s {
	case ShipmentStatusActive, ShipmentStatusPickedUp,
		ShipmentStatusInTransit, ShipmentStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports if a shipment with the `s` status may be
// moved to the `next` status by a status update request.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String converts the ShipmentStatus enum to a string, helping to
// serialize it for transmission to web clients or storage in the
// database. Invalid shipment status causes a panic.
func (s ShipmentStatus) String() string {
	switch s {
	case ShipmentStatusPending:
		return "pending"
	case ShipmentStatusActive:
		return "active"
	case ShipmentStatusPickedUp:
		return "picked_up"
	case ShipmentStatusInTransit:
		return "in_transit"
	case ShipmentStatusDelivered:
		return "delivered"
	case ShipmentStatusCancelled:
		return "cancelled"
	default:
		panic(ShipmentStatusError(s))
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s ShipmentStatus) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *ShipmentStatus) UnmarshalText(data []byte) error {
	ss, err := ParseShipmentStatus(string(data))
	if err != nil {
		return err
	}
	*s = ss
	return nil
}

// ParseShipmentStatus parses the given string and returns a
// ShipmentStatus. For invalid strings, ShipmentStatusInvalid and
// ErrUnknownShipmentStatus will be returned.
func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	switch s {
	case "pending":
		return ShipmentStatusPending, nil
	case "active":
		return ShipmentStatusActive, nil
	case "picked_up":
		return ShipmentStatusPickedUp, nil
	case "in_transit":
		return ShipmentStatusInTransit, nil
	case "delivered":
		return ShipmentStatusDelivered, nil
	case "cancelled":
		return ShipmentStatusCancelled, nil
	default:
		return ShipmentStatusInvalid, ErrUnknownShipmentStatus
	}
}

// TransitionError indicates that a shipment could not be moved from
// its From status to the asked To status.
type TransitionError struct {
	From, To ShipmentStatus
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf(
		"illegal status transition from %s to %s",
		statusName(e.From), statusName(e.To),
	)
}

func statusName(s ShipmentStatus) string {
	if s.Validate() != nil {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return s.String()
}
