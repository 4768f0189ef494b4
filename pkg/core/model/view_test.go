// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentViewPlaceholders(t *testing.T) {
	s := newShipment(t)
	known, missing := uuid.New(), uuid.New()
	r, err := s.SubmitRequest(uuid.New(), known, 0, t0)
	require.NoError(t, err)
	_, err = s.SubmitRequest(uuid.New(), missing, 0, t0)
	require.NoError(t, err)
	_, err = s.ResolveRequest(r.ID, model.RequestStatusAccepted, t0)
	require.NoError(t, err)
	before := *s

	parties := model.PartyLookup{
		known: {ID: known, Username: "ravi", VehicleType: "truck"},
	}
	v := model.NewShipmentView(*s, parties, false, true)

	require.Len(t, v.Requests, 2)
	assert.Equal(t, "ravi", v.Requests[0].Driver.Username)
	assert.True(t, v.Requests[1].Driver.IsUnavailable())
	assert.Equal(t, missing, v.Requests[1].Driver.ID)
	assert.Equal(t, model.UnavailableContactNumber,
		v.Requests[1].Driver.ContactNumber)
	require.NotNil(t, v.Driver)
	assert.Equal(t, "ravi", v.Driver.Username)
	assert.Nil(t, v.Business, "business was not asked")
	assert.Equal(t, before, *s, "view must not change the shipment")
}

func TestPartyIDs(t *testing.T) {
	s := newShipment(t)
	d := uuid.New()
	_, err := s.SubmitRequest(uuid.New(), d, 0, t0)
	require.NoError(t, err)
	shipments := []model.Shipment{*s, *s}

	assert.Equal(t, []uuid.UUID{s.BusinessID},
		model.PartyIDs(shipments, true, false))
	assert.Equal(t, []uuid.UUID{d}, model.PartyIDs(shipments, false, true))
	assert.Len(t, model.PartyIDs(shipments, true, true), 2)
}
