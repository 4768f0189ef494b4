// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// ShipmentsConnQueryer lists the shipments queries which may run on
// a connection, outside of an explicit transaction.
type ShipmentsConnQueryer interface {
	ShipmentsQueryer
}

// ShipmentsTxQueryer lists the shipments queries which need a
// transaction. A shipment which is loaded by GetForUpdate stays locked
// until the transaction is committed or rolled back, so concurrent
// mutations of one shipment are serialized.
type ShipmentsTxQueryer interface {
	ShipmentsQueryer

	// GetForUpdate loads the id shipment and its requests, locking
	// the shipment row. Unknown ids give a cerr.NotFound error.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Shipment, error)

	// Update persists the mutable fields of `s` and upserts all of
	// its requests, keeping their slice order.
	Update(ctx context.Context, s *model.Shipment) error
}

// ShipmentsQueryer lists the shipments queries which can run both on
// a connection or in a transaction. All listings are ordered by their
// creation time, newest first, and include the embedded requests.
type ShipmentsQueryer interface {
	Create(ctx context.Context, s *model.Shipment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	ListByBusiness(
		ctx context.Context, businessID uuid.UUID,
	) ([]model.Shipment, error)
	ListByDriver(
		ctx context.Context, driverID uuid.UUID,
	) ([]model.Shipment, error)
	ListPendingByCity(
		ctx context.Context, city string,
	) ([]model.Shipment, error)
}

// Shipments is the shipments repository port. Its implementation
// unwraps the given Conn or Tx and returns the relevant queryer.
type Shipments interface {
	Conn(Conn) ShipmentsConnQueryer
	Tx(Tx) ShipmentsTxQueryer
}
