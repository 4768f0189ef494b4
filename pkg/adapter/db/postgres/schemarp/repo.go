// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schemarp manages the drivesync schema and its database roles
// (see Repo) and creates the drivesync tables (see Initializer).
package schemarp

import (
	"context"

	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"github.com/rohandhobale/drivesync/pkg/core/scram"
)

// Repo implements repo.Schema. All role names are suffixed by its
// roleSuffix, so parallel tests may share one DBMS server.
type Repo struct {
	roleSuffix repo.Role
	hasher     scram.Hasher
}

// New creates a Repo which hashes the role passwords with `hasher`
// before sending them to the DBMS.
func New(roleSuffix repo.Role, hasher scram.Hasher) *Repo {
	return &Repo{roleSuffix: roleSuffix, hasher: hasher}
}

// Conn panics unless `c` is a *postgres.Conn.
func (schema *Repo) Conn(c repo.Conn) repo.SchemaConnQueryer {
	return queryer[*postgres.Conn]{
		q: c.(*postgres.Conn), roleSuffix: schema.roleSuffix,
	}
}

// Tx panics unless `tx` is a *postgres.Tx. Password changes which are
// made by the returned queryer become visible on commit.
func (schema *Repo) Tx(tx repo.Tx) repo.SchemaTxQueryer {
	return txQueryer{
		queryer: queryer[*postgres.Tx]{
			q: tx.(*postgres.Tx), roleSuffix: schema.roleSuffix,
		},
		hasher: schema.hasher,
	}
}

type queryer[Q postgres.Queryer] struct {
	q          Q
	roleSuffix repo.Role
}

func (sq queryer[Q]) DropIfExists(ctx context.Context, schema string) error {
	return DropIfExists(ctx, sq.q, schema)
}

func (sq queryer[Q]) CreateSchema(ctx context.Context, schema string) error {
	return CreateSchema(ctx, sq.q, schema)
}

func (sq queryer[Q]) CreateRoleIfNotExists(
	ctx context.Context, role repo.Role,
) error {
	return CreateRoleIfNotExists(ctx, sq.q, sq.roleSuffix, role)
}

func (sq queryer[Q]) GrantPrivileges(
	ctx context.Context, schema string, role repo.Role,
) error {
	return GrantPrivileges(ctx, sq.q, sq.roleSuffix, schema, role)
}

func (sq queryer[Q]) SetSearchPath(
	ctx context.Context, schema string, role repo.Role,
) error {
	return SetSearchPath(ctx, sq.q, sq.roleSuffix, schema, role)
}

type txQueryer struct {
	queryer[*postgres.Tx]
	hasher scram.Hasher
}

func (tq txQueryer) ChangePasswords(
	ctx context.Context, roles []repo.Role, passwords []string,
) error {
	return ChangePasswords(
		ctx, tq.q, tq.roleSuffix, tq.hasher, roles, passwords,
	)
}
