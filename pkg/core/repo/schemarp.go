// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// SchemaInitializer creates the drivesync tables in the empty schema
// which is the search_path of its transaction role.
type SchemaInitializer interface {
	// InitDevSchema also adds the sample businesses and drivers, so
	// tokens may be minted for them and the API can be tried out.
	InitDevSchema(ctx context.Context) error

	InitProdSchema(ctx context.Context) error
}

// Schema is the port of the administrative queries which prepare a
// database for drivesync. They run as the AdminRole.
type Schema interface {
	Conn(Conn) SchemaConnQueryer
	Tx(Tx) SchemaTxQueryer
}

type SchemaConnQueryer interface {
	SchemaQueryer
}

type SchemaTxQueryer interface {
	SchemaQueryer

	// ChangePasswords sets passwords[i] for roles[i]. Both slices must
	// have the same length. Role names are suffixed as configured.
	ChangePasswords(
		ctx context.Context, roles []Role, passwords []string,
	) error
}

// SchemaQueryer methods take trusted schema names. They are quoted as
// identifiers, but are never checked against a list.
type SchemaQueryer interface {
	// DropIfExists fails for a non-empty schema, so the tables of an
	// existing deployment are never dropped.
	DropIfExists(ctx context.Context, schema string) error

	// CreateSchema fails if the schema exists.
	CreateSchema(ctx context.Context, schema string) error

	// CreateRoleIfNotExists creates a LOGIN role without a password.
	CreateRoleIfNotExists(ctx context.Context, role Role) error

	// GrantPrivileges grants ALL privileges on `schema` to `role`.
	GrantPrivileges(ctx context.Context, schema string, role Role) error

	// SetSearchPath makes `schema` the only search_path of `role`.
	SetSearchPath(ctx context.Context, schema string, role Role) error
}
