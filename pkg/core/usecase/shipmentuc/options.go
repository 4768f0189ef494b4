// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentuc

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Option is a functional option for the shipments use case.
type Option func(uc *UseCase) error

// WithMaxRequests option limits the number of driver requests which
// may be kept for each shipment. Without this option, the
// DefaultMaxRequests limit is used.
func WithMaxRequests(n int) Option {
	return func(uc *UseCase) error {
		if n <= 0 {
			return fmt.Errorf("max requests (%d) is not positive", n)
		}
		if uc.maxRequests != 0 {
			return errors.New("max requests is already configured")
		}
		uc.maxRequests = n
		return nil
	}
}

// WithCache option configures the shipments cache. Shipments are read
// from the cache by the Get use case and all mutated shipments are
// written back to it after their commit.
func WithCache(c Cache) Option {
	return func(uc *UseCase) error {
		if c == nil {
			return errors.New("cache is nil")
		}
		if uc.cache != nil {
			return errors.New("cache is already configured")
		}
		uc.cache = c
		return nil
	}
}

// WithNotifier option adds a notifier for the shipment events.
// It may be passed multiple times.
func WithNotifier(n Notifier) Option {
	return func(uc *UseCase) error {
		if n == nil {
			return errors.New("notifier is nil")
		}
		uc.notifiers = append(uc.notifiers, n)
		return nil
	}
}

// WithClock option replaces the time source of the use case.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}

// WithIDGenerator option replaces the generator of the shipments and
// requests identifiers.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(uc *UseCase) error {
		if newID == nil {
			return errors.New("id generator is nil")
		}
		uc.newID = newID
		return nil
	}
}
