// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package partiesrp reads the display information of businesses and
// drivers from the users table. The table is maintained by the
// authentication service, so this repository never writes to it.
package partiesrp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

type gUser struct {
	ID            uuid.UUID `gorm:"primaryKey;type:uuid"`
	Username      string
	UserType      string
	Email         string
	ContactNumber string
	VehicleType   string
	BusinessName  string
}

func (gu *gUser) TableName() string {
	return "users"
}

func (gu *gUser) Model() model.Party {
	return model.Party{
		ID:            gu.ID,
		Username:      gu.Username,
		Email:         gu.Email,
		ContactNumber: gu.ContactNumber,
		VehicleType:   gu.VehicleType,
		BusinessName:  gu.BusinessName,
	}
}

// Parties finds the users with the given ids. Missing users are not
// reported, so the caller may use placeholders for them.
func Parties[Q postgres.Queryer](
	ctx context.Context, q Q, ids []uuid.UUID,
) (map[uuid.UUID]model.Party, error) {
	parties := make(map[uuid.UUID]model.Party, len(ids))
	if len(ids) == 0 {
		return parties, nil
	}
	var gus []gUser
	err := q.GORM(ctx).Where("id IN ?", ids).Find(&gus).Error
	if err != nil {
		return nil, fmt.Errorf("finding users: %w", err)
	}
	for i := range gus {
		parties[gus[i].ID] = gus[i].Model()
	}
	return parties, nil
}

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (parties *Repo) Conn(c repo.Conn) repo.PartiesQueryer {
	return connQueryer{Conn: c.(*postgres.Conn)}
}

func (cq connQueryer) Parties(
	ctx context.Context, ids []uuid.UUID,
) (map[uuid.UUID]model.Party, error) {
	return Parties(ctx, cq.Conn, ids)
}

type txQueryer struct {
	*postgres.Tx
}

func (parties *Repo) Tx(tx repo.Tx) repo.PartiesQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx)}
}

func (tq txQueryer) Parties(
	ctx context.Context, ids []uuid.UUID,
) (map[uuid.UUID]model.Party, error) {
	return Parties(ctx, tq.Tx, ids)
}
