// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentuc_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
	"github.com/stretchr/testify/suite"
)

type ShipmentsSuite struct {
	suite.Suite

	ctx      context.Context
	st       *store
	cache    *fakeCache
	notifier *fakeNotifier
	uc       *shipmentuc.UseCase
	clock    time.Time

	business, otherBusiness model.Principal
	driverA, driverB        model.Principal
}

func TestShipmentsSuite(t *testing.T) {
	suite.Run(t, new(ShipmentsSuite))
}

func (ss *ShipmentsSuite) SetupTest() {
	ss.ctx = context.Background()
	ss.st = newStore()
	ss.cache = newFakeCache()
	ss.notifier = &fakeNotifier{}
	ss.clock = time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	ss.business = model.Principal{ID: uuid.New(), Role: model.RoleBusiness}
	ss.otherBusiness = model.Principal{ID: uuid.New(), Role: model.RoleBusiness}
	ss.driverA = model.Principal{ID: uuid.New(), Role: model.RoleDriver}
	ss.driverB = model.Principal{ID: uuid.New(), Role: model.RoleDriver}
	ss.st.parties[ss.business.ID] = model.Party{
		ID: ss.business.ID, Username: "tata", BusinessName: "Tata Steel",
	}
	ss.st.parties[ss.driverA.ID] = model.Party{
		ID: ss.driverA.ID, Username: "ravi", VehicleType: "truck",
		ContactNumber: "+91 98000 00001",
	}
	var err error
	ss.uc, err = shipmentuc.New(
		&fakePool{st: ss.st}, fakeShipments{}, fakeParties{},
		shipmentuc.WithCache(ss.cache),
		shipmentuc.WithNotifier(ss.notifier),
		shipmentuc.WithMaxRequests(3),
		shipmentuc.WithClock(ss.tick),
	)
	ss.Require().NoError(err, "cannot create use case")
}

func (ss *ShipmentsSuite) tick() time.Time {
	ss.clock = ss.clock.Add(time.Second)
	return ss.clock
}

func (ss *ShipmentsSuite) steelCoils() *model.ShipmentView {
	v, err := ss.uc.Create(ss.ctx, ss.business, model.ShipmentDraft{
		Title:    "Steel Coils",
		FromCity: "Pune",
		ToCity:   "Mumbai",
		Weight:   500,
		Volume:   "2x2x2",
		Deadline: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	ss.Require().NoError(err, "cannot create shipment")
	return v
}

func (ss *ShipmentsSuite) requireStatus(err error, code int) {
	ss.T().Helper()
	var ce *cerr.Error
	ss.Require().ErrorAs(err, &ce)
	ss.Equal(code, ce.HTTPStatusCode, err.Error())
}

func (ss *ShipmentsSuite) TestSteelCoilsScenario() {
	v := ss.steelCoils()
	ss.Equal(model.ShipmentStatusPending, v.Status)
	ss.Empty(v.Requests)
	id := v.ID

	v, err := ss.uc.SubmitRequest(ss.ctx, ss.driverA, id)
	ss.Require().NoError(err)
	ss.Require().Len(v.Requests, 1)
	ss.Equal(ss.driverA.ID, v.Requests[0].DriverID)
	ss.Equal(model.RequestStatusPending, v.Requests[0].Status)
	ss.Equal("ravi", v.Requests[0].Driver.Username)
	reqA := v.Requests[0].ID

	v, err = ss.uc.SubmitRequest(ss.ctx, ss.driverB, id)
	ss.Require().NoError(err)
	ss.Require().Len(v.Requests, 2)
	ss.True(v.Requests[1].Driver.IsUnavailable(), "B has no user record")

	v, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, id, reqA, model.RequestStatusAccepted,
	)
	ss.Require().NoError(err)
	ss.Equal(model.ShipmentStatusActive, v.Status)
	ss.Require().NotNil(v.DriverID)
	ss.Equal(ss.driverA.ID, *v.DriverID)
	ss.Equal(model.RequestStatusAccepted, v.Requests[0].Status)
	ss.Equal(model.RequestStatusRejected, v.Requests[1].Status)
	ss.Require().NotNil(v.Driver)
	ss.Equal("truck", v.Driver.VehicleType)

	before := ss.clock
	v, err = ss.uc.ReportLocation(
		ss.ctx, ss.driverA, id, model.Location{Lat: 18.5, Lng: 73.8},
	)
	ss.Require().NoError(err)
	ss.Require().NotNil(v.CurrentLocation)
	ss.Equal(model.Location{Lat: 18.5, Lng: 73.8}, *v.CurrentLocation)
	ss.Require().NotNil(v.LastLocationUpdate)
	ss.True(v.LastLocationUpdate.After(before))

	v, err = ss.uc.UpdateStatus(
		ss.ctx, ss.driverA, id, model.ShipmentStatusDelivered, nil,
	)
	ss.Require().NoError(err)
	ss.Equal(model.ShipmentStatusDelivered, v.Status)

	ss.Equal([]model.EventType{
		model.EventShipmentCreated,
		model.EventRequestSubmitted,
		model.EventRequestSubmitted,
		model.EventRequestResolved,
		model.EventDriverAssigned,
		model.EventLocationReported,
		model.EventStatusChanged,
	}, ss.notifier.types())

	cached, err := ss.cache.Get(ss.ctx, id)
	ss.Require().NoError(err)
	ss.Require().NotNil(cached)
	ss.Equal(model.ShipmentStatusDelivered, cached.Status)
}

func (ss *ShipmentsSuite) TestRoles() {
	v := ss.steelCoils()
	_, err := ss.uc.Create(ss.ctx, ss.driverA, model.ShipmentDraft{})
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.SubmitRequest(ss.ctx, ss.business, v.ID)
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.ListPendingInCity(ss.ctx, ss.business, "Pune")
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.ListForBusiness(ss.ctx, ss.driverA)
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.ListForDriver(ss.ctx, ss.business)
	ss.requireStatus(err, http.StatusForbidden)
}

func (ss *ShipmentsSuite) TestCreateValidation() {
	_, err := ss.uc.Create(ss.ctx, ss.business, model.ShipmentDraft{
		Title: "No cities", Weight: 1, Volume: "1x1x1",
		Deadline: ss.clock,
	})
	ss.requireStatus(err, http.StatusBadRequest)
	ss.Empty(ss.notifier.types())
}

func (ss *ShipmentsSuite) TestOwnership() {
	v := ss.steelCoils()
	v, err := ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	rid := v.Requests[0].ID

	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.otherBusiness, v.ID, rid, model.RequestStatusAccepted,
	)
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.SetPlannedLocations(
		ss.ctx, ss.otherBusiness, v.ID, &model.Location{Lat: 1}, nil,
	)
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.ReportLocation(ss.ctx, ss.driverA, v.ID, model.Location{})
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.UpdateStatus(
		ss.ctx, ss.otherBusiness, v.ID, model.ShipmentStatusCancelled, nil,
	)
	ss.requireStatus(err, http.StatusForbidden)

	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, rid, model.RequestStatusAccepted,
	)
	ss.Require().NoError(err)
	_, err = ss.uc.ReportLocation(ss.ctx, ss.driverB, v.ID, model.Location{})
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.UpdateStatus(
		ss.ctx, ss.driverB, v.ID, model.ShipmentStatusPickedUp, nil,
	)
	ss.requireStatus(err, http.StatusForbidden)
	_, err = ss.uc.UpdateStatus(
		ss.ctx, ss.business, v.ID, model.ShipmentStatusPickedUp, nil,
	)
	ss.NoError(err, "owner may update the status too")
}

func (ss *ShipmentsSuite) TestRequestConflicts() {
	v := ss.steelCoils()
	_, err := ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	_, err = ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.requireStatus(err, http.StatusConflict)

	for i := 0; i < 2; i++ {
		d := model.Principal{ID: uuid.New(), Role: model.RoleDriver}
		_, err = ss.uc.SubmitRequest(ss.ctx, d, v.ID)
		ss.Require().NoError(err)
	}
	d := model.Principal{ID: uuid.New(), Role: model.RoleDriver}
	_, err = ss.uc.SubmitRequest(ss.ctx, d, v.ID)
	ss.requireStatus(err, http.StatusConflict)
	ss.True(errors.Is(err, model.ErrTooManyRequests))

	_, err = ss.uc.SubmitRequest(ss.ctx, ss.driverA, uuid.New())
	ss.requireStatus(err, http.StatusNotFound)
}

func (ss *ShipmentsSuite) TestResolveErrors() {
	v := ss.steelCoils()
	v, err := ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	rid := v.Requests[0].ID

	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, rid, model.RequestStatusPending,
	)
	ss.requireStatus(err, http.StatusBadRequest)
	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, uuid.New(), model.RequestStatusRejected,
	)
	ss.requireStatus(err, http.StatusNotFound)
	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, uuid.New(), rid, model.RequestStatusRejected,
	)
	ss.requireStatus(err, http.StatusNotFound)

	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, rid, model.RequestStatusRejected,
	)
	ss.Require().NoError(err)
	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, rid, model.RequestStatusAccepted,
	)
	ss.requireStatus(err, http.StatusConflict)
}

func (ss *ShipmentsSuite) TestIllegalTransition() {
	v := ss.steelCoils()
	_, err := ss.uc.UpdateStatus(
		ss.ctx, ss.business, v.ID, model.ShipmentStatusDelivered, nil,
	)
	ss.requireStatus(err, http.StatusUnprocessableEntity)

	v, err = ss.uc.UpdateStatus(
		ss.ctx, ss.business, v.ID, model.ShipmentStatusCancelled, nil,
	)
	ss.Require().NoError(err)
	ss.Equal(model.ShipmentStatusCancelled, v.Status)

	_, err = ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.requireStatus(err, http.StatusUnprocessableEntity)
	_, err = ss.uc.SetPlannedLocations(
		ss.ctx, ss.business, v.ID, &model.Location{Lat: 1}, nil,
	)
	ss.requireStatus(err, http.StatusUnprocessableEntity)
}

func (ss *ShipmentsSuite) TestPlannedLocations() {
	v := ss.steelCoils()
	pickup := model.Location{Lat: 18.52, Lng: 73.85}
	dropoff := model.Location{Lat: 19.07, Lng: 72.87}
	_, err := ss.uc.SetPlannedLocations(ss.ctx, ss.business, v.ID, nil, nil)
	ss.requireStatus(err, http.StatusBadRequest)

	_, err = ss.uc.SetPlannedLocations(
		ss.ctx, ss.business, v.ID, &pickup, &dropoff,
	)
	ss.Require().NoError(err)
	moved := model.Location{Lat: 18.6, Lng: 73.9}
	v, err = ss.uc.SetPlannedLocations(
		ss.ctx, ss.business, v.ID, &moved, nil,
	)
	ss.Require().NoError(err)
	ss.Equal(moved, *v.PickupLocation)
	ss.Equal(dropoff, *v.DropoffLocation)

	_, err = ss.uc.SetPlannedLocations(
		ss.ctx, ss.business, v.ID, &model.Location{Lat: 95}, nil,
	)
	ss.requireStatus(err, http.StatusBadRequest)
}

func (ss *ShipmentsSuite) TestListings() {
	pune := ss.steelCoils()
	_, err := ss.uc.Create(ss.ctx, ss.business, model.ShipmentDraft{
		Title: "Cement", FromCity: "Nagpur", ToCity: "Pune",
		Weight: 40, Volume: "1x1x1", Deadline: ss.clock,
	})
	ss.Require().NoError(err)
	taken := ss.steelCoils()
	v, err := ss.uc.SubmitRequest(ss.ctx, ss.driverA, taken.ID)
	ss.Require().NoError(err)
	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, taken.ID, v.Requests[0].ID,
		model.RequestStatusAccepted,
	)
	ss.Require().NoError(err)

	vs, err := ss.uc.ListPendingInCity(ss.ctx, ss.driverB, "Pune")
	ss.Require().NoError(err)
	ss.Require().Len(vs, 1)
	ss.Equal(pune.ID, vs[0].ID)
	ss.Require().NotNil(vs[0].Business)
	ss.Equal("Tata Steel", vs[0].Business.BusinessName)

	vs, err = ss.uc.ListForBusiness(ss.ctx, ss.business)
	ss.Require().NoError(err)
	ss.Require().Len(vs, 3)
	ss.Equal(taken.ID, vs[0].ID, "newest first")
	ss.Equal("ravi", vs[0].Requests[0].Driver.Username)
	ss.Nil(vs[0].Business)

	vs, err = ss.uc.ListForDriver(ss.ctx, ss.driverA)
	ss.Require().NoError(err)
	ss.Require().Len(vs, 1)
	ss.Equal(taken.ID, vs[0].ID)

	vs, err = ss.uc.ListForDriver(ss.ctx, ss.driverB)
	ss.Require().NoError(err)
	ss.Empty(vs)
}

func (ss *ShipmentsSuite) TestGetVisibility() {
	v := ss.steelCoils()
	_, err := ss.uc.Get(ss.ctx, ss.driverB, v.ID)
	ss.NoError(err, "pending shipments are public to drivers")
	_, err = ss.uc.Get(ss.ctx, ss.otherBusiness, v.ID)
	ss.requireStatus(err, http.StatusForbidden)

	v, err = ss.uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	_, err = ss.uc.ResolveRequest(
		ss.ctx, ss.business, v.ID, v.Requests[0].ID,
		model.RequestStatusAccepted,
	)
	ss.Require().NoError(err)
	_, err = ss.uc.Get(ss.ctx, ss.driverB, v.ID)
	ss.requireStatus(err, http.StatusForbidden)
	got, err := ss.uc.Get(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	ss.Equal(model.ShipmentStatusActive, got.Status)
	_, err = ss.uc.Get(ss.ctx, ss.business, v.ID)
	ss.Require().NoError(err)
	ss.Equal(5, ss.cache.hits, "committed state is served from cache")

	_, err = ss.uc.Get(ss.ctx, ss.business, uuid.New())
	ss.requireStatus(err, http.StatusNotFound)
}

func (ss *ShipmentsSuite) TestSideEffectFailuresAreIgnored() {
	ss.cache.failPut = true
	ss.notifier.fail = true
	ss.st.failParty = true
	v := ss.steelCoils()
	ss.Require().NotNil(v.Business)
	ss.True(v.Business.IsUnavailable())

	ss.cache.failPut = false
	got, err := ss.uc.Get(ss.ctx, ss.business, v.ID)
	ss.Require().NoError(err)
	ss.Equal(v.ID, got.ID)
	ss.Zero(ss.cache.hits, "failed put must not leave an entry")
}

// Concurrent accepts of distinct requests must assign one driver only.
func (ss *ShipmentsSuite) TestConcurrentAccepts() {
	v := ss.steelCoils()
	const n = 8
	for i := 0; i < n; i++ {
		d := model.Principal{ID: uuid.New(), Role: model.RoleDriver}
		_, err := ss.uc.SubmitRequest(ss.ctx, d, v.ID)
		if i >= 3 {
			ss.requireStatus(err, http.StatusConflict)
			continue
		}
		ss.Require().NoError(err)
	}
	s, err := ss.st.get(v.ID)
	ss.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, len(s.Requests))
	for i, r := range s.Requests {
		wg.Add(1)
		go func(i int, rid uuid.UUID) {
			defer wg.Done()
			_, errs[i] = ss.uc.ResolveRequest(
				ss.ctx, ss.business, v.ID, rid, model.RequestStatusAccepted,
			)
		}(i, r.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		ss.True(errors.Is(err, model.ErrRequestResolved), err.Error())
	}
	ss.Equal(1, succeeded)
	s, err = ss.st.get(v.ID)
	ss.Require().NoError(err)
	accepted := s.AcceptedRequest()
	ss.Require().NotNil(accepted)
	ss.Require().NotNil(s.DriverID)
	ss.Equal(accepted.DriverID, *s.DriverID)
}

// delayedCache holds back the Put of the first active shipment until
// `release` is closed.
type delayedCache struct {
	*fakeCache
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (c *delayedCache) Put(ctx context.Context, s *model.Shipment) error {
	if s.Status == model.ShipmentStatusActive {
		held := false
		c.once.Do(func() { held = true })
		if held {
			close(c.reached)
			<-c.release
		}
	}
	return c.fakeCache.Put(ctx, s)
}

// A late cache write of an older state must not hide a newer commit.
func (ss *ShipmentsSuite) TestLateCachePutKeepsNewerState() {
	dc := &delayedCache{
		fakeCache: newFakeCache(),
		reached:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	uc, err := shipmentuc.New(
		&fakePool{st: ss.st}, fakeShipments{}, fakeParties{},
		shipmentuc.WithCache(dc), shipmentuc.WithClock(ss.tick),
	)
	ss.Require().NoError(err)

	v, err := uc.Create(ss.ctx, ss.business, model.ShipmentDraft{
		Title: "Steel Coils", FromCity: "Pune", ToCity: "Mumbai",
		Weight: 500, Volume: "2x2x2",
		Deadline: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	ss.Require().NoError(err)
	v, err = uc.SubmitRequest(ss.ctx, ss.driverA, v.ID)
	ss.Require().NoError(err)
	rid := v.Requests[0].ID

	accepted := make(chan error, 1)
	go func() {
		_, err := uc.ResolveRequest(
			ss.ctx, ss.business, v.ID, rid, model.RequestStatusAccepted,
		)
		accepted <- err
	}()
	<-dc.reached

	delivered, err := uc.UpdateStatus(
		ss.ctx, ss.driverA, v.ID, model.ShipmentStatusDelivered, nil,
	)
	ss.Require().NoError(err)
	close(dc.release)
	ss.Require().NoError(<-accepted)

	got, err := uc.Get(ss.ctx, ss.business, v.ID)
	ss.Require().NoError(err)
	ss.Equal(model.ShipmentStatusDelivered, got.Status)
	ss.Equal(delivered.Revision, got.Revision)
	ss.Equal(1, dc.hits, "state is served from the cache")
}
