// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schema is an internal helper for the test packages which
// verifies the drivesync database schema after its initialization.
package schema

import (
	"context"
	"testing"

	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tables lists the expected tables and a few of their key columns.
var Tables = map[string][]string{
	"users": {
		"id", "username", "user_type", "contact_number", "vehicle_type",
		"business_name",
	},
	"shipments": {
		"id", "from_city", "status", "business_id", "driver_id",
		"pickup_lat", "dropoff_lng", "current_lat",
		"last_location_update", "updated_at", "revision",
	},
	"shipment_requests": {
		"id", "shipment_id", "driver_id", "status", "position",
	},
}

// DevUsers is the number of users which are inserted by the
// development initialization.
const DevUsers = 5

// Verifier verifies the drivesync schema using the wrapped database
// connection. It expects the drivesync schema to be in search_path.
type Verifier struct {
	c repo.Conn // database connection which is used for testing
}

// NewVerifier instantiates a Verifier, wrapping the `c` connection.
func NewVerifier(c repo.Conn) *Verifier {
	return &Verifier{c}
}

// VerifySchema checks that the expected tables and columns exist in
// the current schema. The tables contents are not checked.
func (v *Verifier) VerifySchema(ctx context.Context, t *testing.T) {
	for table, columns := range Tables {
		rows, err := v.c.Query(
			ctx,
			`SELECT column_name FROM information_schema.columns
WHERE table_schema=current_schema() AND table_name=$1`,
			table,
		)
		require.NoError(t, err, "querying columns of %q", table)
		found := make(map[string]bool)
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			found[name] = true
		}
		rows.Close()
		require.NoError(t, rows.Err(), "reading columns of %q", table)
		for _, c := range columns {
			assert.True(t, found[c], "column %s.%s is missing", table, c)
		}
	}
}

// VerifyDevData checks that the sample users are inserted.
func (v *Verifier) VerifyDevData(ctx context.Context, t *testing.T) {
	assert.Equal(t, DevUsers, v.count(ctx, t, "users"))
}

// VerifyProdData checks that all tables are empty.
func (v *Verifier) VerifyProdData(ctx context.Context, t *testing.T) {
	for table := range Tables {
		assert.Zero(t, v.count(ctx, t, table), "table %q", table)
	}
}

func (v *Verifier) count(ctx context.Context, t *testing.T, table string) int {
	// table names are taken from the trusted Tables map
	rows, err := v.c.Query(ctx, "SELECT count(*) FROM "+table)
	require.NoError(t, err, "counting %q rows", table)
	defer rows.Close()
	require.True(t, rows.Next(), "no count for %q", table)
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}
