// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package kafka publishes the committed shipment events into a Kafka
// topic. Messages are keyed by the shipment id, so all events of one
// shipment land in the same partition and keep their order.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	skafka "github.com/segmentio/kafka-go"

	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// Writer is the subset of the kafka-go Writer which is used here.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher implements the shipmentuc.Notifier port.
type Publisher struct {
	writer Writer
}

// batchTimeout bounds how long a message may wait for others to
// join its batch. Notify writes one message and blocks until it is
// acknowledged, so the writer's default of one second would delay
// every committed change.
const batchTimeout = 5 * time.Millisecond

// NewWriter returns a kafka-go writer for the `topic` topic of the
// given brokers cluster which flushes each message right away.
func NewWriter(brokers []string, topic string) *skafka.Writer {
	return &skafka.Writer{
		Addr:                   skafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		RequiredAcks:           skafka.RequireAll,
		BatchSize:              1,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

// New creates a Publisher which writes into the `topic` topic of the
// given brokers cluster.
func New(brokers []string, topic string) *Publisher {
	return NewWithWriter(NewWriter(brokers, topic))
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w Writer) *Publisher {
	return &Publisher{writer: w}
}

// Notify writes `e` as a JSON message and waits for its
// acknowledgement.
func (p *Publisher) Notify(ctx context.Context, e model.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(e.ShipmentID.String()),
		Value: b,
		Headers: []skafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.At,
	}
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
