// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package shipmentcache keeps the latest committed state of shipments
// in Redis, so repeated reads of a shipment may skip the database.
// Values are JSON documents which expire after a configured ttl.
// A stored shipment is only replaced by one with an equal or greater
// revision, so late writes of an older state are dropped.
package shipmentcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// Client is the subset of the go-redis client which is used by Cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(
		ctx context.Context, script string, keys []string, args ...any,
	) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// putScript stores ARGV[1] with a ttl of ARGV[3] milliseconds unless
// the stored document has a revision greater than ARGV[2]. It returns
// 1 if the value was stored and 0 if the newer value was kept.
const putScript = `
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and
      tonumber(doc['revision'] or 0) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`

// Cache implements the shipmentuc.Cache port.
type Cache struct {
	client Client
	prefix string
	ttl    time.Duration
}

// New connects to the Redis server at `addr` (using its `db` database)
// and returns a Cache which prefixes all keys with `prefix`.
// The server is pinged once, so a wrong address fails early.
func New(
	ctx context.Context, addr string, db int, prefix string, ttl time.Duration,
) (*Cache, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("pinging redis at %q: %w", addr, err)
	}
	return NewWithClient(c, prefix, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: c, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(id uuid.UUID) string {
	return c.prefix + id.String()
}

// Get returns the cached shipment or nil (with a nil error) on a miss.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	b, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get: %w", err)
	}
	s := &model.Shipment{}
	if err = json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decoding cached shipment: %w", err)
	}
	return s, nil
}

// Put stores `s` unless a newer revision of it is already cached.
// The check and the write are atomic on the server.
func (c *Cache) Put(ctx context.Context, s *model.Shipment) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding shipment: %w", err)
	}
	err = c.client.Eval(
		ctx, putScript, []string{c.key(s.ID)},
		b, s.Revision, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis eval: %w", err)
	}
	return nil
}

// Delete evicts the `id` shipment. Evicting a missing key is not
// an error.
func (c *Cache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the client connections.
func (c *Cache) Close() error {
	return c.client.Close()
}
