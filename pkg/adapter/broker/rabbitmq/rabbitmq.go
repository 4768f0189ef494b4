// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rabbitmq publishes the committed shipment events into a
// durable RabbitMQ queue, so background workers (e.g., a notifications
// sender) may consume them.
package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// Channel is the subset of amqp.Channel which is used by Publisher.
type Channel interface {
	QueueDeclare(
		name string, durable, autoDelete, exclusive, noWait bool,
		args amqp.Table,
	) (amqp.Queue, error)
	PublishWithContext(
		ctx context.Context, exchange, key string,
		mandatory, immediate bool, msg amqp.Publishing,
	) error
	Close() error
}

// Publisher implements the shipmentuc.Notifier port.
type Publisher struct {
	mu    sync.Mutex
	ch    Channel
	conn  *amqp.Connection
	queue string
}

// Dial connects to the `url` broker, opens a channel, and declares
// the `queue` durable queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	p, err := New(ch, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares the `queue` durable queue on `ch` and returns a
// Publisher which sends messages to it through the default exchange.
func New(ch Channel, queue string) (*Publisher, error) {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declaring queue %q: %w", queue, err)
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

// Notify publishes `e` as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, e model.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(e.Type),
		MessageId:    messageID(e),
		Timestamp:    e.At,
		Body:         b,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	if err != nil {
		return fmt.Errorf("publishing to %q: %w", p.queue, err)
	}
	return nil
}

// messageID identifies `e` for consumers which drop duplicates.
// One change may emit several events at the same instant (e.g., an
// accepted request is also an assignment), so the type is a part of it.
func messageID(e model.Event) string {
	return fmt.Sprintf("%s/%s/%d", e.ShipmentID, e.Type, e.At.UnixNano())
}

// Close closes the channel and, if it was dialed by this package,
// the connection too.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
