// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres provides the PostgreSQL reification of the repo
// Pool, Conn, and Tx interfaces using GORM (and pgx as its driver).
// The repository packages, such as shipmentsrp, accept *Conn or *Tx
// through the Queryer type constraint and use their GORM method.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"gorm.io/gorm"
)

// These SQLSTATE codes are reported by PostgreSQL for the constraint
// violations which are caused by the client provided data.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
)

// Error translates the `err` GORM/pgx error into a cerr.Error when
// it is caused by the client, so it may be reported properly.
// A missing record is reported as NotFound, a unique violation as
// Conflict, and foreign key or check violations as BadRequest.
// Other errors are wrapped by the `op` operation description.
func Error(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cerr.NotFound(fmt.Errorf("%s: %w", op, err))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case UniqueViolation:
			return cerr.Conflict(fmt.Errorf(
				"%s: %s violates %s", op, pgErr.TableName,
				pgErr.ConstraintName,
			))
		case ForeignKeyViolation, CheckViolation:
			return cerr.BadRequest(fmt.Errorf(
				"%s: %s violates %s", op, pgErr.TableName,
				pgErr.ConstraintName,
			))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
