// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestStatus specifies the status of a driver request. Like the
// ShipmentStatus, it is (de)serialized as a string.
type RequestStatus int

// Valid values for the RequestStatus enum.
const (
	RequestStatusInvalid RequestStatus = iota // zero value is invalid

	RequestStatusPending  // waiting for the business decision
	RequestStatusAccepted // the driver is assigned to the shipment
	RequestStatusRejected // declined explicitly or by a sibling accept
)

// ErrUnknownRequestStatus indicates that a given string may not be
// parsed as a valid/known request status.
var ErrUnknownRequestStatus = errors.New("unknown request status")

// RequestStatusError indicates an invalid numeric request status.
type RequestStatusError int

// Error implements the error interface.
func (e RequestStatusError) Error() string {
	return fmt.Sprintf("invalid request status: %d", e)
}

// Validate returns nil if RequestStatus value is valid.
func (s RequestStatus) Validate() error {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return nil
	default:
		return RequestStatusError(s)
	}
}

// IsDecision reports if the `s` status may be used in order to resolve
// a pending request, that is, if it is accepted or rejected.
func (s RequestStatus) IsDecision() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// String converts the RequestStatus enum to a string.
// Invalid request status causes a panic.
func (s RequestStatus) String() string {
	switch s {
	case RequestStatusPending:
		return "pending"
	case RequestStatusAccepted:
		return "accepted"
	case RequestStatusRejected:
		return "rejected"
	default:
		panic(RequestStatusError(s))
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s RequestStatus) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *RequestStatus) UnmarshalText(data []byte) error {
	rs, err := ParseRequestStatus(string(data))
	if err != nil {
		return err
	}
	*s = rs
	return nil
}

// ParseRequestStatus parses the given string and returns a
// RequestStatus. For invalid strings, RequestStatusInvalid and
// ErrUnknownRequestStatus will be returned.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch s {
	case "pending":
		return RequestStatusPending, nil
	case "accepted":
		return RequestStatusAccepted, nil
	case "rejected":
		return RequestStatusRejected, nil
	default:
		return RequestStatusInvalid, ErrUnknownRequestStatus
	}
}

// Request models the interest of a driver in carrying a shipment.
// Requests are embedded in their parent Shipment and their order
// follows the submission order. Only the Status and UpdatedAt fields
// may change after creation.
type Request struct {
	ID        uuid.UUID     `json:"id"`
	DriverID  uuid.UUID     `json:"driverId"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
