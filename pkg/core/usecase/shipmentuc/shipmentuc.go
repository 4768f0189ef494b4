// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package shipmentuc contains the shipments UseCase which supports the
// shipment lifecycle use cases:
//  1. Posting a shipment and listing shipments (by business owner,
//     by assigned driver, or pending ones by their origin city),
//  2. Submitting a driver request and accepting or rejecting it,
//  3. Planning the pickup/dropoff locations, reporting the current
//     location, and updating the shipment status.
//
// Each mutation loads one shipment in a transaction, locking it, and
// applies the model rules before persisting it. After a successful
// commit, the new shipment state is written to an optional Cache and
// an Event is passed to every configured Notifier.
package shipmentuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

// DefaultMaxRequests is the number of driver requests which may be
// kept for one shipment, unless WithMaxRequests option is used.
const DefaultMaxRequests = 50

// Cache keeps the recently read or changed shipments. A nil shipment
// and nil error are returned by Get for the missing entries.
// Puts may arrive out of order, since they run after the commit, so
// Put must keep an entry whose Revision is greater than the given one.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	Put(ctx context.Context, s *model.Shipment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier delivers the committed shipment events to the interested
// parties, e.g., a message broker or connected websocket clients.
type Notifier interface {
	Notify(ctx context.Context, e model.Event) error
}

// UseCase represents a shipments use case. It holds a database
// connection pool, the shipments and parties repositories, and the
// optional cache and notifiers.
type UseCase struct {
	pool        repo.Pool
	shipmentsrp repo.Shipments
	partiesrp   repo.Parties

	cache       Cache
	notifiers   []Notifier
	maxRequests int
	now         func() time.Time
	newID       func() uuid.UUID
}

// New instantiates a shipments use case.
// Required parameters are passed individually, so caller has to
// provision them and whenever they change, caller will notice and fix
// them due to a compilation error.
// Optional parameters are passed as a series of functional options
// in order to facilitate their validation and flexibility.
func New(
	p repo.Pool, s repo.Shipments, parties repo.Parties, opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, shipmentsrp: s, partiesrp: parties}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.maxRequests == 0 {
		uc.maxRequests = DefaultMaxRequests
	}
	if uc.now == nil {
		uc.now = func() time.Time {
			// PostgreSQL keeps microseconds
			return time.Now().UTC().Truncate(time.Microsecond)
		}
	}
	if uc.newID == nil {
		uc.newID = uuid.New
	}
	return uc, nil
}

// mutate runs `f` on the id shipment in a transaction. The shipment is
// locked until `f` returns and its changes are persisted. Model errors
// which are returned by `f` are translated to their cerr counterparts.
func (uc *UseCase) mutate(
	ctx context.Context, id uuid.UUID, f func(s *model.Shipment) error,
) (s *model.Shipment, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.shipmentsrp.Tx(tx)
			s, err = q.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err = f(s); err != nil {
				return coreError(err)
			}
			s.Revision++
			return q.Update(ctx, s)
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// coreError maps the model errors to the cerr types, so the adapters
// can report them properly. Other errors are returned unchanged.
func coreError(err error) error {
	var ve *model.ValidationError
	var se *model.StateError
	var te *model.TransitionError
	switch {
	case errors.As(err, &ve):
		return cerr.BadRequest(err)
	case errors.As(err, &se), errors.As(err, &te):
		return cerr.State(err)
	case errors.Is(err, model.ErrDuplicateRequest),
		errors.Is(err, model.ErrTooManyRequests),
		errors.Is(err, model.ErrRequestResolved):
		return cerr.Conflict(err)
	case errors.Is(err, model.ErrRequestNotFound):
		return cerr.NotFound(err)
	}
	return err
}

func forbidden(format string, args ...any) error {
	return cerr.Authorization(fmt.Errorf(format, args...))
}

// committed publishes the `s` new state after its transaction commit.
// These side effects are best-effort and their failures are logged.
func (uc *UseCase) committed(
	ctx context.Context,
	typ model.EventType,
	s *model.Shipment,
	actor model.Principal,
	requestID *uuid.UUID,
) {
	log.Debug(
		ctx, "shipment changed",
		slog.String("type", string(typ)), log.UUID("shipment", s.ID),
		slog.String("status", s.Status.String()),
		slog.Int64("revision", s.Revision),
		log.OptionalUUID("driver", s.DriverID),
	)
	if uc.cache != nil {
		if err := uc.cache.Put(ctx, s); err != nil {
			log.Warn(
				ctx, "caching shipment failed",
				log.UUID("shipment", s.ID), log.Err("err", err),
			)
			// a stale entry is worse than a missing one
			if err := uc.cache.Delete(ctx, s.ID); err != nil {
				log.Warn(
					ctx, "evicting shipment failed",
					log.UUID("shipment", s.ID), log.Err("err", err),
				)
			}
		}
	}
	if len(uc.notifiers) == 0 {
		return
	}
	e := model.Event{
		Type:       typ,
		ShipmentID: s.ID,
		RequestID:  requestID,
		ActorID:    actor.ID,
		At:         s.UpdatedAt,
		Shipment:   *s.Clone(),
	}
	for _, n := range uc.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			log.Warn(
				ctx, "notifying shipment event failed",
				slog.String("type", string(typ)), log.UUID("shipment", s.ID),
				log.Err("err", err),
			)
		}
	}
}

// view builds the full view of a single shipment. Since the shipment
// is already persisted, a failed parties lookup is only logged and
// placeholders are used instead.
func (uc *UseCase) view(
	ctx context.Context, s *model.Shipment,
) *model.ShipmentView {
	shipments := []model.Shipment{*s}
	parties, err := uc.lookup(ctx, model.PartyIDs(shipments, true, true))
	if err != nil {
		log.Warn(
			ctx, "looking up shipment parties failed",
			log.UUID("shipment", s.ID), log.Err("err", err),
		)
	}
	v := model.NewShipmentView(*s, parties, true, true)
	return &v
}

func (uc *UseCase) lookup(
	ctx context.Context, ids []uuid.UUID,
) (parties model.PartyLookup, err error) {
	if len(ids) == 0 {
		return model.PartyLookup{}, nil
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		parties, err = uc.partiesrp.Conn(c).Parties(ctx, ids)
		return err
	})
	if err != nil {
		return model.PartyLookup{}, fmt.Errorf("finding parties: %w", err)
	}
	return parties, nil
}
