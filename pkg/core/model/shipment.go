// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// These errors describe the request related conflicts. Similar to the
// ErrUnknownShipmentStatus, they do not carry the involved identifiers
// because the caller already knows about them and may wrap them.
var (
	// ErrDuplicateRequest indicates that a driver tried to submit a
	// second request for the same shipment (regardless of the status
	// of the first one).
	ErrDuplicateRequest = errors.New("request already exists")

	// ErrTooManyRequests indicates that a shipment has collected the
	// maximum number of requests which may be kept for it.
	ErrTooManyRequests = errors.New("too many requests for shipment")

	// ErrRequestNotFound indicates that a request id is not known in
	// the scope of its parent shipment.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestResolved indicates that a request was accepted or
	// rejected beforehand and may not be resolved again.
	ErrRequestResolved = errors.New("request is already resolved")
)

// ValidationError indicates a missing or malformed field.
type ValidationError struct {
	Field  string // JSON name of the offending field
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StateError indicates that Op operation is not applicable while the
// shipment holds the Status status.
type StateError struct {
	Op     string
	Status ShipmentStatus
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf(
		"cannot %s while shipment is %s", e.Op, statusName(e.Status),
	)
}

// Shipment models one freight job which is posted by a business and
// may be carried by one driver. Its requests are embedded in the
// submission order. The BusinessID never changes after creation and
// DriverID is set if and only if one request is accepted.
type Shipment struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	FromCity    string    `json:"fromCity"`
	ToCity      string    `json:"toCity"`
	Description string    `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	Weight      float64   `json:"weight"`
	Volume      string    `json:"volume"`
	Cost        float64   `json:"cost"`

	BusinessID uuid.UUID      `json:"businessId"`
	DriverID   *uuid.UUID     `json:"driverId,omitempty"`
	Status     ShipmentStatus `json:"status"`
	Requests   []Request      `json:"requests"`

	PickupLocation     *Location  `json:"pickupLocation,omitempty"`
	DropoffLocation    *Location  `json:"dropoffLocation,omitempty"`
	CurrentLocation    *Location  `json:"currentLocation,omitempty"`
	LastLocationUpdate *time.Time `json:"lastLocationUpdate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Revision counts the committed changes. Copies of a shipment which
	// are kept outside of the database (e.g., in a cache) are ordered
	// by it, since timestamps of two quick changes may collide.
	Revision int64 `json:"revision"`
}

// ShipmentDraft contains the business provided fields of a shipment
// which is going to be posted. Planned locations are optional and may
// be set later using the SetPlannedLocations method.
type ShipmentDraft struct {
	Title       string
	FromCity    string
	ToCity      string
	Description string
	Deadline    time.Time
	Weight      float64
	Volume      string
	Cost        float64

	PickupLocation  *Location
	DropoffLocation *Location
}

// Validate reports the first missing or malformed field of the draft.
// The deadline is not compared with the current time.
func (d ShipmentDraft) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"title", d.Title},
		{"fromCity", d.FromCity},
		{"toCity", d.ToCity},
		{"volume", d.Volume},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	switch {
	case d.Deadline.IsZero():
		return &ValidationError{Field: "deadline", Reason: "is required"}
	case !(d.Weight > 0):
		return &ValidationError{Field: "weight", Reason: "must be positive"}
	case d.Cost < 0:
		return &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	if d.PickupLocation != nil {
		if err := d.PickupLocation.Validate("pickupLocation"); err != nil {
			return err
		}
	}
	if d.DropoffLocation != nil {
		if err := d.DropoffLocation.Validate("dropoffLocation"); err != nil {
			return err
		}
	}
	return nil
}

// NewShipment validates the `d` draft and creates a pending shipment
// with no requests and no driver, owned by the businessID business.
func NewShipment(
	id, businessID uuid.UUID, d ShipmentDraft, now time.Time,
) (*Shipment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Shipment{
		ID:              id,
		Title:           strings.TrimSpace(d.Title),
		FromCity:        strings.TrimSpace(d.FromCity),
		ToCity:          strings.TrimSpace(d.ToCity),
		Description:     d.Description,
		Deadline:        d.Deadline,
		Weight:          d.Weight,
		Volume:          d.Volume,
		Cost:            d.Cost,
		BusinessID:      businessID,
		Status:          ShipmentStatusPending,
		Requests:        []Request{},
		PickupLocation:  d.PickupLocation,
		DropoffLocation: d.DropoffLocation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsOwnedBy reports if the businessID business has posted `s`.
func (s *Shipment) IsOwnedBy(businessID uuid.UUID) bool {
	return s.BusinessID == businessID
}

// IsAssignedTo reports if the driverID driver is assigned to `s`.
func (s *Shipment) IsAssignedTo(driverID uuid.UUID) bool {
	return s.DriverID != nil && *s.DriverID == driverID
}

// Request returns the embedded request with the given id or nil.
// Returned pointer refers to the element of the Requests slice.
func (s *Shipment) Request(id uuid.UUID) *Request {
	for i := range s.Requests {
		if s.Requests[i].ID == id {
			return &s.Requests[i]
		}
	}
	return nil
}

// RequestOf returns the request of the driverID driver or nil.
func (s *Shipment) RequestOf(driverID uuid.UUID) *Request {
	for i := range s.Requests {
		if s.Requests[i].DriverID == driverID {
			return &s.Requests[i]
		}
	}
	return nil
}

// AcceptedRequest returns the accepted request of `s` or nil.
func (s *Shipment) AcceptedRequest() *Request {
	for i := range s.Requests {
		if s.Requests[i].Status == RequestStatusAccepted {
			return &s.Requests[i]
		}
	}
	return nil
}

// SubmitRequest appends a pending request with the given id for the
// driverID driver. A second request of the same driver is refused with
// ErrDuplicateRequest whatever the status of the first one is. Requests
// are only collected while the shipment is pending and at most `limit`
// requests are kept (a non-positive limit disables that check).
func (s *Shipment) SubmitRequest(
	id, driverID uuid.UUID, limit int, now time.Time,
) (*Request, error) {
	if s.RequestOf(driverID) != nil {
		return nil, ErrDuplicateRequest
	}
	if s.Status != ShipmentStatusPending {
		return nil, &StateError{Op: "submit a request", Status: s.Status}
	}
	if limit > 0 && len(s.Requests) >= limit {
		return nil, ErrTooManyRequests
	}
	s.Requests = append(s.Requests, Request{
		ID:        id,
		DriverID:  driverID,
		Status:    RequestStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.UpdatedAt = now
	return &s.Requests[len(s.Requests)-1], nil
}

// ResolveRequest accepts or rejects the requestID request as asked by
// the `decision` argument. Each request may be resolved once.
// Accepting a request assigns its driver, activates the shipment, and
// forces every other request of the shipment to the rejected status,
// including the previously resolved ones. Rejecting a request has no
// effect on the shipment itself.
func (s *Shipment) ResolveRequest(
	requestID uuid.UUID, decision RequestStatus, now time.Time,
) (*Request, error) {
	if !decision.IsDecision() {
		return nil, &ValidationError{
			Field:  "status",
			Reason: "must be either accepted or rejected",
		}
	}
	r := s.Request(requestID)
	if r == nil {
		return nil, ErrRequestNotFound
	}
	if r.Status != RequestStatusPending {
		return nil, ErrRequestResolved
	}
	if decision == RequestStatusRejected {
		r.Status = RequestStatusRejected
		r.UpdatedAt = now
		s.UpdatedAt = now
		return r, nil
	}
	if s.Status != ShipmentStatusPending {
		return nil, &StateError{Op: "accept a request", Status: s.Status}
	}
	for i := range s.Requests {
		sibling := &s.Requests[i]
		if sibling.ID == requestID {
			continue
		}
		if sibling.Status != RequestStatusRejected {
			sibling.Status = RequestStatusRejected
			sibling.UpdatedAt = now
		}
	}
	r.Status = RequestStatusAccepted
	r.UpdatedAt = now
	driverID := r.DriverID
	s.DriverID = &driverID
	s.Status = ShipmentStatusActive
	s.UpdatedAt = now
	return r, nil
}

// SetPlannedLocations updates the pickup and/or dropoff locations.
// A nil argument leaves its corresponding location untouched, but at
// least one of them must be given.
func (s *Shipment) SetPlannedLocations(
	pickup, dropoff *Location, now time.Time,
) error {
	if pickup == nil && dropoff == nil {
		return &ValidationError{
			Field:  "pickupLocation",
			Reason: "pickupLocation or dropoffLocation is required",
		}
	}
	if s.Status.IsTerminal() {
		return &StateError{Op: "plan locations", Status: s.Status}
	}
	if pickup != nil {
		if err := pickup.Validate("pickupLocation"); err != nil {
			return err
		}
	}
	if dropoff != nil {
		if err := dropoff.Validate("dropoffLocation"); err != nil {
			return err
		}
	}
	if pickup != nil {
		p := *pickup
		s.PickupLocation = &p
	}
	if dropoff != nil {
		d := *dropoff
		s.DropoffLocation = &d
	}
	s.UpdatedAt = now
	return nil
}

// ReportLocation overwrites the current location of an assigned and
// not yet finished shipment and stamps the LastLocationUpdate.
func (s *Shipment) ReportLocation(loc Location, now time.Time) error {
	if !s.Status.IsAssigned() || s.Status.IsTerminal() {
		return &StateError{Op: "report location", Status: s.Status}
	}
	if err := loc.Validate("location"); err != nil {
		return err
	}
	s.setCurrentLocation(loc, now)
	return nil
}

// UpdateStatus moves the shipment to the `next` status if the status
// transitions table allows it. If `loc` is not nil, the current
// location is updated too (all or nothing).
func (s *Shipment) UpdateStatus(
	next ShipmentStatus, loc *Location, now time.Time,
) error {
	if err := next.Validate(); err != nil {
		return &ValidationError{Field: "status", Reason: err.Error()}
	}
	if !s.Status.CanTransitionTo(next) {
		return &TransitionError{From: s.Status, To: next}
	}
	if loc != nil {
		if err := loc.Validate("location"); err != nil {
			return err
		}
		s.setCurrentLocation(*loc, now)
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

func (s *Shipment) setCurrentLocation(loc Location, now time.Time) {
	s.CurrentLocation = &loc
	t := now
	s.LastLocationUpdate = &t
	s.UpdatedAt = now
}

// Clone returns a deep copy of `s`, so it may be mutated or retained
// without aliasing the requests or the locations of `s`.
func (s *Shipment) Clone() *Shipment {
	c := *s
	c.DriverID = clonePtr(s.DriverID)
	c.PickupLocation = clonePtr(s.PickupLocation)
	c.DropoffLocation = clonePtr(s.DropoffLocation)
	c.CurrentLocation = clonePtr(s.CurrentLocation)
	c.LastLocationUpdate = clonePtr(s.LastLocationUpdate)
	c.Requests = append(make([]Request, 0, len(s.Requests)), s.Requests...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
