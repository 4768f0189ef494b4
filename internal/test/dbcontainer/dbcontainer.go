// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer starts a throwaway postgres:16 container for the
// integration test suites and connects to it with a *postgres.Pool.
//
// The container is started through the docker API, so with podman the
// DOCKER_HOST variable must point to its socket, e.g.,
// DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/schemarp"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"github.com/stretchr/testify/assert"
)

const dbmsVersion = "16"

// Container is a started database container along with a superuser
// connection pool. Both are released by the test cleanup.
type Container struct {
	Pg   *sqltestutil.PostgresContainer
	Pool *postgres.Pool
}

type options struct {
	timeout   time.Duration
	devSchema bool
}

type Option func(*options)

// WithTimeout limits the container start up (default one minute).
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithDevSchema creates the drivesync tables in the public schema and
// fills them with the development users, so repositories and resources
// may be tested against the known sample businesses and drivers.
func WithDevSchema() Option {
	return func(o *options) {
		o.devSchema = true
	}
}

// New starts a container or reports why it could not. When ok is false
// the errors are already reported on `t`, so the caller may return.
func New(
	ctx context.Context, t *testing.T, opts ...Option,
) (c *Container, ok bool) {
	o := options{timeout: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	ctx2, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	c = &Container{}
	var err error
	c.Pg, err = sqltestutil.StartPostgresContainer(ctx2, dbmsVersion)
	if !assert.NoError(t, err, "failed to set up a test database") {
		return nil, false
	}
	t.Cleanup(func() {
		assert.NoError(t, c.Pg.Shutdown(ctx), "failed to shutdown test database")
	})
	if c.Pool, err = connect(ctx2, c.Pg.ConnectionString()); err != nil {
		assert.NoError(t, err, "cannot connect to test database")
		return nil, false
	}
	t.Cleanup(func() {
		assert.NoError(t, c.Pool.Close(), "failed to close the connections pool")
	})
	if !o.devSchema {
		return c, true
	}
	err = c.Pool.Conn(ctx, func(ctx context.Context, cn repo.Conn) error {
		return cn.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return schemarp.NewInitializer(tx).InitDevSchema(ctx)
		})
	})
	if !assert.NoError(t, err, "failed to create the dev schema") {
		return nil, false
	}
	return c, true
}

// connect retries while the server is starting up or its port is not
// reachable yet, until `ctx` expires.
func connect(ctx context.Context, u string) (*postgres.Pool, error) {
	for {
		pool, err := postgres.NewPool(ctx, u)
		if err == nil {
			return pool, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == "57P03" {
			continue // the database system is starting up
		}
		var netErr net.Error
		if ctx.Err() == nil && errors.As(err, &netErr) {
			continue
		}
		return nil, err
	}
}

// Port returns the host port which is mapped to the container 5432.
func (c *Container) Port() (int, error) {
	u, err := url.Parse(c.Pg.ConnectionString())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Port())
}
