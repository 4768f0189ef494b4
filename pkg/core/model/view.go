// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "github.com/google/uuid"

// RequestView is a Request decorated with its driver display info.
type RequestView struct {
	Request
	Driver Party `json:"driver"`
}

// ShipmentView is the read-side representation of a Shipment which
// resolves its business, driver, and request drivers references into
// their display information. Building a view never changes the stored
// shipment.
type ShipmentView struct {
	Shipment
	Business *Party       `json:"business,omitempty"`
	Driver   *Party       `json:"driver,omitempty"`
	Requests []RequestView `json:"requests"`
}

// PartyLookup resolves party ids into their display information.
// Ids which are missing from the map are substituted by placeholders.
type PartyLookup map[uuid.UUID]Party

// Get returns the party of the id user or its placeholder.
func (pl PartyLookup) Get(id uuid.UUID) Party {
	if p, ok := pl[id]; ok {
		return p
	}
	return UnavailableParty(id)
}

// PartyIDs lists the distinct party ids which are referenced by the
// given shipments. The business ids are included only if `business`
// is true, while the drivers (assigned or requesting) are included
// only if `drivers` is true.
func PartyIDs(shipments []Shipment, business, drivers bool) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for i := range shipments {
		s := &shipments[i]
		if business {
			add(s.BusinessID)
		}
		if !drivers {
			continue
		}
		if s.DriverID != nil {
			add(*s.DriverID)
		}
		for _, r := range s.Requests {
			add(r.DriverID)
		}
	}
	return ids
}

// NewShipmentView creates a view of `s`, resolving its references
// using the `parties` lookup. The business is resolved only if
// `business` is true and the drivers only if `drivers` is true.
func NewShipmentView(
	s Shipment, parties PartyLookup, business, drivers bool,
) ShipmentView {
	v := ShipmentView{
		Shipment: s,
		Requests: make([]RequestView, 0, len(s.Requests)),
	}
	if business {
		b := parties.Get(s.BusinessID)
		v.Business = &b
	}
	for _, r := range s.Requests {
		rv := RequestView{Request: r}
		if drivers {
			rv.Driver = parties.Get(r.DriverID)
		} else {
			rv.Driver = Party{ID: r.DriverID}
		}
		v.Requests = append(v.Requests, rv)
	}
	if drivers && s.DriverID != nil {
		d := parties.Get(*s.DriverID)
		v.Driver = &d
	}
	return v
}
