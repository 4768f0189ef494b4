// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo contains the ports which the use cases need in order to
// persist shipments and read the users directory. Adapters implement
// them for a concrete database, so use cases depend on no driver.
//
// Every database access goes through a handler callback. Pool.Conn
// lends a Conn to its handler and Conn.Tx runs its handler in a
// transaction which is committed if the handler returns nil and is
// rolled back otherwise. Neither Conn nor Tx may be kept after their
// handler returns.
package repo

import "context"

// ConnHandler uses a pooled connection until it returns.
type ConnHandler func(context.Context, Conn) error

// Pool keeps the database connections of one Role.
type Pool interface {
	Conn(ctx context.Context, handler ConnHandler) error
	Close() error
}

// TxHandler runs in a transaction. Returning an error rolls it back.
type TxHandler func(context.Context, Tx) error

// Conn is a single database connection. It is unsafe to be used
// concurrently.
type Conn interface {
	Queryer
	Tx(ctx context.Context, handler TxHandler) error

	// IsConn keeps a Tx from being passed where a Conn is expected.
	IsConn()
}

// Tx is a READ-COMMITTED transaction. Shipment mutations lock their
// row in a Tx, so two drivers racing for one shipment are serialized.
type Tx interface {
	Queryer

	// IsTx keeps a Conn from being passed where a Tx is expected.
	IsTx()
}

// Queryer runs raw SQL statements. Repositories wrap it and expose
// typed queries instead.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (count int64, err error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows iterates over the result of a Queryer.Query call.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
	Values() ([]any, error)
}
