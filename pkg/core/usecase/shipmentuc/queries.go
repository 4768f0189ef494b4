// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentuc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

// Get use case returns the id shipment if it is visible to the `p`
// caller. The owner business and the assigned driver may see it at
// any time, while other drivers may only see the pending shipments.
func (uc *UseCase) Get(
	ctx context.Context, p model.Principal, id uuid.UUID,
) (*model.ShipmentView, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case s.IsOwnedBy(p.ID), s.IsAssignedTo(p.ID):
	case p.IsDriver() && s.Status == model.ShipmentStatusPending:
	default:
		return nil, forbidden("shipment %s is not visible to caller", id)
	}
	return uc.view(ctx, s), nil
}

func (uc *UseCase) load(
	ctx context.Context, id uuid.UUID,
) (s *model.Shipment, err error) {
	if uc.cache != nil {
		s, err = uc.cache.Get(ctx, id)
		switch {
		case err != nil:
			log.Warn(
				ctx, "reading cached shipment failed",
				log.UUID("shipment", id), log.Err("err", err),
			)
		case s != nil:
			return s, nil
		}
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err = uc.shipmentsrp.Conn(c).Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Put(ctx, s); err != nil {
			log.Warn(
				ctx, "caching shipment failed",
				log.UUID("shipment", id), log.Err("err", err),
			)
		}
	}
	return s, nil
}

// ListForBusiness use case returns the shipments of the `p` business
// caller, newest first. Requests are decorated with their drivers
// display info.
func (uc *UseCase) ListForBusiness(
	ctx context.Context, p model.Principal,
) ([]model.ShipmentView, error) {
	if !p.IsBusiness() {
		return nil, forbidden("only businesses own shipments")
	}
	return uc.list(ctx, false, true,
		func(ctx context.Context, q repo.ShipmentsQueryer) ([]model.Shipment, error) {
			return q.ListByBusiness(ctx, p.ID)
		},
	)
}

// ListForDriver use case returns the shipments which are assigned to
// the `p` driver caller, newest first, with their business info.
func (uc *UseCase) ListForDriver(
	ctx context.Context, p model.Principal,
) ([]model.ShipmentView, error) {
	if !p.IsDriver() {
		return nil, forbidden("only drivers are assigned to shipments")
	}
	return uc.list(ctx, true, false,
		func(ctx context.Context, q repo.ShipmentsQueryer) ([]model.Shipment, error) {
			return q.ListByDriver(ctx, p.ID)
		},
	)
}

// ListPendingInCity use case returns the pending shipments which
// start from `city`, newest first, with their business info.
func (uc *UseCase) ListPendingInCity(
	ctx context.Context, p model.Principal, city string,
) ([]model.ShipmentView, error) {
	if !p.IsDriver() {
		return nil, forbidden("only drivers may browse shipments")
	}
	return uc.list(ctx, true, false,
		func(ctx context.Context, q repo.ShipmentsQueryer) ([]model.Shipment, error) {
			return q.ListPendingByCity(ctx, city)
		},
	)
}

func (uc *UseCase) list(
	ctx context.Context,
	business, drivers bool,
	find func(context.Context, repo.ShipmentsQueryer) ([]model.Shipment, error),
) ([]model.ShipmentView, error) {
	var shipments []model.Shipment
	var parties model.PartyLookup
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		shipments, err = find(ctx, uc.shipmentsrp.Conn(c))
		if err != nil {
			return err
		}
		ids := model.PartyIDs(shipments, business, drivers)
		if len(ids) == 0 {
			return nil
		}
		parties, err = uc.partiesrp.Conn(c).Parties(ctx, ids)
		if err != nil {
			return fmt.Errorf("finding parties: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	views := make([]model.ShipmentView, 0, len(shipments))
	for _, s := range shipments {
		views = append(
			views, model.NewShipmentView(s, parties, business, drivers),
		)
	}
	return views, nil
}
