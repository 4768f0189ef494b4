// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"

	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"gorm.io/gorm"
)

// Conn is one pooled connection. It implements repo.Conn.
type Conn struct {
	*gorm.DB
}

// Tx is a READ-COMMITTED transaction which is begun by Conn.Tx.
// The shipments repository locks rows explicitly (SELECT FOR UPDATE)
// where a read-modify-write cycle must be serialized.
type Tx struct {
	*gorm.DB
}

// Tx runs `f` in a new transaction. It is committed if `f` returns nil
// and is rolled back if `f` fails or panics. A panic is reported as
// an error, so one broken request cannot crash the server.
func (c *Conn) Tx(ctx context.Context, f repo.TxHandler) (err error) {
	tx := c.DB.WithContext(ctx).Begin()
	if err = tx.Error; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		err = finish(tx, err, recover())
	}()
	return f(ctx, &Tx{DB: tx})
}

// finish ends the `tx` transaction based on the handler outcome.
func finish(tx *gorm.DB, err error, panicked any) error {
	if panicked != nil {
		err = fmt.Errorf("panicked: %v", panicked)
	}
	if err == nil {
		if err = tx.Commit().Error; err != nil {
			return Error("commit", err)
		}
		return nil
	}
	if rbErr := tx.Rollback().Error; rbErr != nil {
		return fmt.Errorf("handler: %w, rollback: %w", err, rbErr)
	}
	if panicked != nil {
		return err
	}
	return fmt.Errorf("handler: %w", err)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(c.DB.WithContext(ctx), sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(c.DB.WithContext(ctx), sql, args...)
}

func (c *Conn) IsConn() {
}

// GORM returns the connection bound to `ctx`.
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}

// Exec runs `sql` with `args` and returns the number of affected rows.
// With args, sql is prepared and must hold exactly one statement.
// Both $1 style and the GORM ? and @name placeholders are supported.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(tx.DB.WithContext(ctx), sql, args...)
}

// Query returns the rows of `sql`. They must be closed before running
// another statement in the same transaction.
func (tx *Tx) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(tx.DB.WithContext(ctx), sql, args...)
}

func (tx *Tx) IsTx() {
}

// GORM returns the transaction bound to `ctx`.
func (tx *Tx) GORM(ctx context.Context) *gorm.DB {
	return tx.DB.WithContext(ctx)
}
