// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool hands out *Conn instances to the repo.ConnHandler callbacks.
type Pool struct {
	*gorm.DB
}

type poolOptions struct {
	maxConns      int
	maxIdle       int
	maxLifetime   time.Duration
	slowThreshold time.Duration
}

// PoolOption tunes a Pool which is created by NewPool.
type PoolOption func(*poolOptions)

// WithMaxConns limits the open connections. Zero keeps it unlimited.
// The idle connections are capped by the same number.
func WithMaxConns(n int) PoolOption {
	return func(o *poolOptions) {
		o.maxConns = n
		o.maxIdle = n
	}
}

// WithConnMaxLifetime closes connections after `d`, so a server side
// failover is noticed. Zero keeps connections forever.
func WithConnMaxLifetime(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.maxLifetime = d
	}
}

// WithSlowThreshold logs the queries which take longer than `d`.
func WithSlowThreshold(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.slowThreshold = d
	}
}

// NewPool connects to the `url` database and tests one connection
// before returning. GORM logs go to the default slog logger at the
// warn level, so only slow queries and errors are reported.
func NewPool(
	ctx context.Context, url string, opts ...PoolOption,
) (*Pool, error) {
	o := poolOptions{slowThreshold: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	gdb, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             o.slowThreshold,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				ParameterizedQueries:      true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	db, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm.DB: %w", err)
	}
	db.SetMaxOpenConns(o.maxConns)
	if o.maxIdle > 0 {
		db.SetMaxIdleConns(o.maxIdle)
	}
	db.SetConnMaxLifetime(o.maxLifetime)

	pool := &Pool{DB: gdb}
	if err = pool.Conn(ctx, NoOpConnHandler); err != nil {
		pool.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return pool, nil
}

// NoOpConnHandler only checks that a connection can be established.
func NoOpConnHandler(context.Context, repo.Conn) error {
	return nil
}

func (p *Pool) Conn(ctx context.Context, f repo.ConnHandler) error {
	return p.DB.WithContext(ctx).Connection(func(c *gorm.DB) error {
		return f(ctx, &Conn{DB: c})
	})
}

func (p *Pool) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
