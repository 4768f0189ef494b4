// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/stretchr/testify/assert"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func TestContextAttrs(t *testing.T) {
	buf := captureDefault(t)
	id := uuid.New()
	ctx := log.WithAttrs(context.Background(), log.UUID("userId", id))
	ctx = log.WithAttrs(ctx, slog.String("role", "driver"))

	log.Info(ctx, "location reported", log.OptionalUUID("shipmentId", nil))

	out := buf.String()
	assert.Contains(t, out, "msg=\"location reported\"")
	assert.Contains(t, out, "userId="+id.String())
	assert.Contains(t, out, "role=driver")
	assert.Contains(t, out, "shipmentId=none")
	assert.Contains(t, out, "log_test.go", "caller frame is the test")
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	log.Debug(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", log.Err("err", nil))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "err=no-error")
}
