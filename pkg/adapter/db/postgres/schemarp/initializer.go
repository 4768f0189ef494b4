// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemarp

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

var (
	//go:embed sql/schema.sql
	schemaSQL string

	//go:embed sql/dev.sql
	devSQL string
)

// Initializer creates the drivesync tables using one transaction of
// the normal role, whose search_path points to the drivesync schema.
// It implements the repo.SchemaInitializer interface. The caller is
// responsible to commit the transaction.
type Initializer struct {
	tx *postgres.Tx
}

// NewInitializer unwraps the given repo.Tx, expecting to find an
// instance of *postgres.Tx, and wraps it as an Initializer.
func NewInitializer(tx repo.Tx) *Initializer {
	return &Initializer{tx: tx.(*postgres.Tx)}
}

// InitProdSchema creates the empty tables.
func (i *Initializer) InitProdSchema(ctx context.Context) error {
	if _, err := i.tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// InitDevSchema creates the tables and fills the users table with
// a few sample businesses and drivers.
func (i *Initializer) InitDevSchema(ctx context.Context) error {
	if err := i.InitProdSchema(ctx); err != nil {
		return err
	}
	if _, err := i.tx.Exec(ctx, devSQL); err != nil {
		return fmt.Errorf("inserting sample users: %w", err)
	}
	return nil
}
