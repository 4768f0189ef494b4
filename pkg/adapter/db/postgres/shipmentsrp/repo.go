// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package shipmentsrp provides the PostgreSQL reification of the
// repo.Shipments interface. Shipments are kept in the shipments table
// and their requests in the shipment_requests child table, ordered by
// their submission position.
package shipmentsrp

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (shipments *Repo) Conn(c repo.Conn) repo.ShipmentsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Create(ctx context.Context, s *model.Shipment) error {
	return Create(ctx, cq.Conn, s)
}

func (cq connQueryer) Get(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	return Get(ctx, cq.Conn, id)
}

func (cq connQueryer) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Shipment, error) {
	return ListByBusiness(ctx, cq.Conn, businessID)
}

func (cq connQueryer) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Shipment, error) {
	return ListByDriver(ctx, cq.Conn, driverID)
}

func (cq connQueryer) ListPendingByCity(ctx context.Context, city string) ([]model.Shipment, error) {
	return ListPendingByCity(ctx, cq.Conn, city)
}

type txQueryer struct {
	*postgres.Tx
}

func (shipments *Repo) Tx(tx repo.Tx) repo.ShipmentsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Create(ctx context.Context, s *model.Shipment) error {
	return Create(ctx, tq.Tx, s)
}

func (tq txQueryer) Get(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	return Get(ctx, tq.Tx, id)
}

func (tq txQueryer) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	return GetForUpdate(ctx, tq.Tx, id)
}

func (tq txQueryer) Update(ctx context.Context, s *model.Shipment) error {
	return Update(ctx, tq.Tx, s)
}

func (tq txQueryer) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Shipment, error) {
	return ListByBusiness(ctx, tq.Tx, businessID)
}

func (tq txQueryer) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]model.Shipment, error) {
	return ListByDriver(ctx, tq.Tx, driverID)
}

func (tq txQueryer) ListPendingByCity(ctx context.Context, city string) ([]model.Shipment, error) {
	return ListPendingByCity(ctx, tq.Tx, city)
}
