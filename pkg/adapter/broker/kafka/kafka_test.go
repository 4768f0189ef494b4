// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohandhobale/drivesync/pkg/adapter/broker/kafka"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

type fakeWriter struct {
	msgs   []skafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(
	_ context.Context, msgs ...skafka.Message,
) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNotify(t *testing.T) {
	fw := &fakeWriter{}
	p := kafka.NewWithWriter(fw)
	rid := uuid.New()
	e := model.Event{
		Type:       model.EventRequestSubmitted,
		ShipmentID: uuid.New(),
		RequestID:  &rid,
		ActorID:    uuid.New(),
		At:         time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	e.Shipment.ID = e.ShipmentID

	require.NoError(t, p.Notify(context.Background(), e))
	require.Len(t, fw.msgs, 1)
	m := fw.msgs[0]
	assert.Equal(t, e.ShipmentID.String(), string(m.Key))
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "request.submitted", string(m.Headers[0].Value))

	var got model.Event
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, e.Type, got.Type)
	assert.Equal(t, rid, *got.RequestID)
	assert.Equal(t, e.ShipmentID, got.Shipment.ID)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestNotifyError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	err := kafka.NewWithWriter(fw).Notify(context.Background(), model.Event{})
	assert.ErrorIs(t, err, fw.err)
}

func TestWriterFlushesEachMessage(t *testing.T) {
	w := kafka.NewWriter([]string{"localhost:9092"}, "shipment-events")
	defer w.Close()
	assert.Equal(t, "shipment-events", w.Topic)
	assert.Equal(t, 1, w.BatchSize)
	assert.Positive(t, w.BatchTimeout)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, skafka.RequireAll, w.RequiredAcks)
	assert.IsType(t, &skafka.Hash{}, w.Balancer)
}
