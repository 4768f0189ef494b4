// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentuc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

// Create use case posts a new pending shipment owned by the `p`
// business caller.
func (uc *UseCase) Create(
	ctx context.Context, p model.Principal, d model.ShipmentDraft,
) (*model.ShipmentView, error) {
	if !p.IsBusiness() {
		return nil, forbidden("only businesses may post shipments")
	}
	s, err := model.NewShipment(uc.newID(), p.ID, d, uc.now())
	if err != nil {
		return nil, coreError(err)
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return uc.shipmentsrp.Conn(c).Create(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventShipmentCreated, s, p, nil)
	return uc.view(ctx, s), nil
}

// SubmitRequest use case lets the `p` driver caller ask to carry the
// id shipment. Each driver may submit one request per shipment.
func (uc *UseCase) SubmitRequest(
	ctx context.Context, p model.Principal, id uuid.UUID,
) (*model.ShipmentView, error) {
	if !p.IsDriver() {
		return nil, forbidden("only drivers may request shipments")
	}
	var rid uuid.UUID
	s, err := uc.mutate(ctx, id, func(s *model.Shipment) error {
		r, err := s.SubmitRequest(uc.newID(), p.ID, uc.maxRequests, uc.now())
		if err != nil {
			return err
		}
		rid = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventRequestSubmitted, s, p, &rid)
	return uc.view(ctx, s), nil
}

// ResolveRequest use case lets the owner business accept or reject
// the rid request of the id shipment. Accepting a request assigns its
// driver and rejects all other requests in the same transaction.
func (uc *UseCase) ResolveRequest(
	ctx context.Context,
	p model.Principal,
	id, rid uuid.UUID,
	decision model.RequestStatus,
) (*model.ShipmentView, error) {
	if !p.IsBusiness() {
		return nil, forbidden("only businesses may resolve requests")
	}
	if !decision.IsDecision() {
		return nil, cerr.BadRequest(&model.ValidationError{
			Field: "status", Reason: "must be either accepted or rejected",
		})
	}
	s, err := uc.mutate(ctx, id, func(s *model.Shipment) error {
		if !s.IsOwnedBy(p.ID) {
			return forbidden("shipment %s is not owned by caller", id)
		}
		_, err := s.ResolveRequest(rid, decision, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventRequestResolved, s, p, &rid)
	if decision == model.RequestStatusAccepted {
		uc.committed(ctx, model.EventDriverAssigned, s, p, &rid)
	}
	return uc.view(ctx, s), nil
}

// SetPlannedLocations use case lets the owner business update the
// pickup and/or dropoff locations. A nil location is left unchanged.
func (uc *UseCase) SetPlannedLocations(
	ctx context.Context,
	p model.Principal,
	id uuid.UUID,
	pickup, dropoff *model.Location,
) (*model.ShipmentView, error) {
	if !p.IsBusiness() {
		return nil, forbidden("only businesses may plan locations")
	}
	if pickup == nil && dropoff == nil {
		return nil, cerr.BadRequest(errors.New(
			"pickupLocation or dropoffLocation is required",
		))
	}
	s, err := uc.mutate(ctx, id, func(s *model.Shipment) error {
		if !s.IsOwnedBy(p.ID) {
			return forbidden("shipment %s is not owned by caller", id)
		}
		return s.SetPlannedLocations(pickup, dropoff, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventLocationsPlanned, s, p, nil)
	return uc.view(ctx, s), nil
}

// ReportLocation use case lets the assigned driver overwrite the
// current location of the id shipment.
func (uc *UseCase) ReportLocation(
	ctx context.Context, p model.Principal, id uuid.UUID, loc model.Location,
) (*model.ShipmentView, error) {
	if !p.IsDriver() {
		return nil, forbidden("only drivers may report locations")
	}
	s, err := uc.mutate(ctx, id, func(s *model.Shipment) error {
		if !s.IsAssignedTo(p.ID) {
			return forbidden("shipment %s is not assigned to caller", id)
		}
		return s.ReportLocation(loc, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventLocationReported, s, p, nil)
	return uc.view(ctx, s), nil
}

// UpdateStatus use case moves the id shipment to the `next` status,
// following the status transitions table. The assigned driver or the
// owner business may update the status. If `loc` is not nil, the
// current location is updated in the same transaction.
func (uc *UseCase) UpdateStatus(
	ctx context.Context,
	p model.Principal,
	id uuid.UUID,
	next model.ShipmentStatus,
	loc *model.Location,
) (*model.ShipmentView, error) {
	s, err := uc.mutate(ctx, id, func(s *model.Shipment) error {
		switch {
		case p.IsBusiness() && s.IsOwnedBy(p.ID):
		case p.IsDriver() && s.IsAssignedTo(p.ID):
		default:
			return forbidden("shipment %s is not managed by caller", id)
		}
		return s.UpdateStatus(next, loc, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.committed(ctx, model.EventStatusChanged, s, p, nil)
	return uc.view(ctx, s), nil
}
