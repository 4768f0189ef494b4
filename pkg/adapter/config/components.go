// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohandhobale/drivesync/pkg/adapter/broker/kafka"
	"github.com/rohandhobale/drivesync/pkg/adapter/broker/rabbitmq"
	"github.com/rohandhobale/drivesync/pkg/adapter/cache/redis/shipmentcache"
	"github.com/rohandhobale/drivesync/pkg/adapter/config/settings"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/partiesrp"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/shipmentsrp"
	"github.com/rohandhobale/drivesync/pkg/adapter/websocket/hub"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
)

// Cache contains the Redis shipment cache settings.
type Cache struct {
	Addr      string // host:port of Redis, empty disables caching
	DB        int
	TTL       *settings.Duration
	KeyPrefix string `yaml:"key-prefix"`
}

var (
	minCacheTTL = settings.Duration(time.Second)
	maxCacheTTL = settings.Duration(24 * time.Hour)
)

// ValidateAndNormalize fills the default ttl (10m) and key prefix
// and checks the ttl range.
func (c *Cache) ValidateAndNormalize() error {
	if c.DB < 0 {
		return errors.New("cache db must not be negative")
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "drivesync:shipment:"
	}
	settings.Default(&c.TTL, settings.Duration(10*time.Minute))
	if err := settings.VerifyRange(
		&c.TTL, &minCacheTTL, &maxCacheTTL,
	); err != nil {
		return fmt.Errorf("ttl=%v: %w", time.Duration(*err.Value), err)
	}
	return nil
}

// NewCache connects to Redis. It returns nil (and a nil error) when
// no address is configured.
func (c Cache) NewCache(ctx context.Context) (*shipmentcache.Cache, error) {
	if c.Addr == "" {
		return nil, nil
	}
	return shipmentcache.New(
		ctx, c.Addr, c.DB, c.KeyPrefix, time.Duration(*c.TTL),
	)
}

// Events contains the settings of the shipment event notifiers.
type Events struct {
	Kafka     Kafka
	RabbitMQ  RabbitMQ `yaml:"rabbitmq"`
	WebSocket WebSocket `yaml:"websocket"`
}

// Kafka configures the Kafka publisher. No brokers disables it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// RabbitMQ configures the RabbitMQ publisher. An empty url disables it.
type RabbitMQ struct {
	URL   string `yaml:"url"`
	Queue string
}

// WebSocket configures the live tracking hub.
type WebSocket struct {
	PingPeriod *settings.Duration `yaml:"ping-period"`
	SendBuffer *int               `yaml:"send-buffer"`
}

var (
	minPingPeriod = settings.Duration(time.Second)
	maxPingPeriod = settings.Duration(5 * time.Minute)
	minSendBuffer = 1
	maxSendBuffer = 1024
)

// ValidateAndNormalize fills the topic, queue, and websocket defaults
// and checks their ranges.
func (e *Events) ValidateAndNormalize() error {
	if e.Kafka.Topic == "" {
		e.Kafka.Topic = "drivesync.shipments"
	}
	if e.RabbitMQ.Queue == "" {
		e.RabbitMQ.Queue = "drivesync.shipments"
	}
	ws := &e.WebSocket
	settings.Default(&ws.PingPeriod, settings.Duration(25*time.Second))
	settings.Default(&ws.SendBuffer, 16)
	if err := settings.VerifyRange(
		&ws.PingPeriod, &minPingPeriod, &maxPingPeriod,
	); err != nil {
		return fmt.Errorf("websocket ping-period=%v: %w", time.Duration(*err.Value), err)
	}
	if err := settings.VerifyRange(
		&ws.SendBuffer, &minSendBuffer, &maxSendBuffer,
	); err != nil {
		return fmt.Errorf("websocket send-buffer=%d: %w", *err.Value, err)
	}
	return nil
}

// NewPublisher returns nil if no brokers are configured.
func (k Kafka) NewPublisher() *kafka.Publisher {
	if len(k.Brokers) == 0 {
		return nil
	}
	return kafka.New(k.Brokers, k.Topic)
}

// NewPublisher dials the broker. It returns nil (and a nil error) if
// no url is configured.
func (r RabbitMQ) NewPublisher() (*rabbitmq.Publisher, error) {
	if r.URL == "" {
		return nil, nil
	}
	return rabbitmq.Dial(r.URL, r.Queue)
}

func (ws WebSocket) NewHub() *hub.Hub {
	return hub.New(time.Duration(*ws.PingPeriod), *ws.SendBuffer)
}

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Shipments Shipments
}

// Shipments contains the shipments use case settings.
type Shipments struct {
	// MaxRequestsPerShipment caps the number of requests which may be
	// collected by one shipment. A nil value leaves the choice to the
	// use cases layer.
	MaxRequestsPerShipment *int `yaml:"max-requests-per-shipment"`
}

var (
	minRequests = 1
	maxRequests = 1000
)

func (s *Shipments) ValidateAndNormalize() error {
	if err := settings.VerifyRange(
		&s.MaxRequestsPerShipment, &minRequests, &maxRequests,
	); err != nil {
		return fmt.Errorf(
			"max-requests-per-shipment=%d: %w", *err.Value, err,
		)
	}
	return nil
}

// NewUseCase instantiates the shipments use case with the postgres
// repositories. The `opts` may add the cache and notifiers.
func (s Shipments) NewUseCase(
	p repo.Pool, opts ...shipmentuc.Option,
) (*shipmentuc.UseCase, error) {
	if s.MaxRequestsPerShipment != nil {
		opts = append(
			opts, shipmentuc.WithMaxRequests(*s.MaxRequestsPerShipment),
		)
	}
	return shipmentuc.New(p, shipmentsrp.New(), partiesrp.New(), opts...)
}
