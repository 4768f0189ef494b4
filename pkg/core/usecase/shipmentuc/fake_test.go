// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentuc_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
)

var errNoSQL = errors.New("raw SQL is not supported by the fake store")

// store is an in-memory database. Transactions are serialized by txmu
// and their changes become visible only after the handler succeeds.
type store struct {
	txmu sync.Mutex

	mu        sync.Mutex
	shipments map[uuid.UUID]*model.Shipment
	parties   map[uuid.UUID]model.Party
	failParty bool
}

func newStore() *store {
	return &store{
		shipments: make(map[uuid.UUID]*model.Shipment),
		parties:   make(map[uuid.UUID]model.Party),
	}
}

func (st *store) get(id uuid.UUID) (*model.Shipment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.shipments[id]
	if !ok {
		return nil, cerr.NotFound(fmt.Errorf("shipment %s", id))
	}
	return s.Clone(), nil
}

func (st *store) put(s *model.Shipment) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.shipments[s.ID] = s.Clone()
}

func (st *store) filter(keep func(s *model.Shipment) bool) []model.Shipment {
	st.mu.Lock()
	defer st.mu.Unlock()
	var res []model.Shipment
	for _, s := range st.shipments {
		if keep(s) {
			res = append(res, *s.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}

type fakePool struct {
	st *store
}

func (p *fakePool) Conn(ctx context.Context, h repo.ConnHandler) error {
	return h(ctx, &fakeConn{st: p.st})
}

func (p *fakePool) Close() error {
	return nil
}

type fakeConn struct {
	st *store
}

func (c *fakeConn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errNoSQL
}

func (c *fakeConn) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errNoSQL
}

func (c *fakeConn) IsConn() {
}

func (c *fakeConn) Tx(ctx context.Context, h repo.TxHandler) error {
	c.st.txmu.Lock()
	defer c.st.txmu.Unlock()
	tx := &fakeTx{st: c.st, pending: make(map[uuid.UUID]*model.Shipment)}
	if err := h(ctx, tx); err != nil {
		return fmt.Errorf("handler: %w", err)
	}
	for _, s := range tx.pending {
		c.st.put(s)
	}
	return nil
}

type fakeTx struct {
	st      *store
	pending map[uuid.UUID]*model.Shipment
}

func (tx *fakeTx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errNoSQL
}

func (tx *fakeTx) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errNoSQL
}

func (tx *fakeTx) IsTx() {
}

type fakeShipments struct{}

func (fakeShipments) Conn(c repo.Conn) repo.ShipmentsConnQueryer {
	return shipmentsQueryer{st: c.(*fakeConn).st}
}

func (fakeShipments) Tx(tx repo.Tx) repo.ShipmentsTxQueryer {
	ft := tx.(*fakeTx)
	return shipmentsTxQueryer{shipmentsQueryer{st: ft.st}, ft}
}

type shipmentsQueryer struct {
	st *store
}

func (q shipmentsQueryer) Create(_ context.Context, s *model.Shipment) error {
	q.st.put(s)
	return nil
}

func (q shipmentsQueryer) Get(
	_ context.Context, id uuid.UUID,
) (*model.Shipment, error) {
	return q.st.get(id)
}

func (q shipmentsQueryer) ListByBusiness(
	_ context.Context, businessID uuid.UUID,
) ([]model.Shipment, error) {
	return q.st.filter(func(s *model.Shipment) bool {
		return s.IsOwnedBy(businessID)
	}), nil
}

func (q shipmentsQueryer) ListByDriver(
	_ context.Context, driverID uuid.UUID,
) ([]model.Shipment, error) {
	return q.st.filter(func(s *model.Shipment) bool {
		return s.IsAssignedTo(driverID)
	}), nil
}

func (q shipmentsQueryer) ListPendingByCity(
	_ context.Context, city string,
) ([]model.Shipment, error) {
	return q.st.filter(func(s *model.Shipment) bool {
		return s.FromCity == city && s.Status == model.ShipmentStatusPending
	}), nil
}

type shipmentsTxQueryer struct {
	shipmentsQueryer
	tx *fakeTx
}

func (q shipmentsTxQueryer) GetForUpdate(
	_ context.Context, id uuid.UUID,
) (*model.Shipment, error) {
	return q.st.get(id)
}

func (q shipmentsTxQueryer) Update(_ context.Context, s *model.Shipment) error {
	q.tx.pending[s.ID] = s.Clone()
	return nil
}

type fakeParties struct{}

func (fakeParties) Conn(c repo.Conn) repo.PartiesQueryer {
	return partiesQueryer{st: c.(*fakeConn).st}
}

func (fakeParties) Tx(tx repo.Tx) repo.PartiesQueryer {
	return partiesQueryer{st: tx.(*fakeTx).st}
}

type partiesQueryer struct {
	st *store
}

func (q partiesQueryer) Parties(
	_ context.Context, ids []uuid.UUID,
) (map[uuid.UUID]model.Party, error) {
	q.st.mu.Lock()
	defer q.st.mu.Unlock()
	if q.st.failParty {
		return nil, errors.New("users table is gone")
	}
	res := make(map[uuid.UUID]model.Party)
	for _, id := range ids {
		if p, ok := q.st.parties[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.Shipment
	hits    int
	failPut bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]*model.Shipment)}
}

func (c *fakeCache) Get(
	_ context.Context, id uuid.UUID,
) (*model.Shipment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	c.hits++
	return s.Clone(), nil
}

func (c *fakeCache) Put(_ context.Context, s *model.Shipment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPut {
		return errors.New("cache is full")
	}
	if old, ok := c.entries[s.ID]; ok && old.Revision > s.Revision {
		return nil
	}
	c.entries[s.ID] = s.Clone()
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.Event
	fail   bool
}

func (n *fakeNotifier) Notify(_ context.Context, e model.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	if n.fail {
		return errors.New("broker is down")
	}
	return nil
}

func (n *fakeNotifier) types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var res []model.EventType
	for _, e := range n.events {
		res = append(res, e.Type)
	}
	return res
}
