// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shipmentsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gShipment struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	Title       string
	FromCity    string
	ToCity      string
	Description string
	Deadline    time.Time
	Weight      float64
	Volume      string
	Cost        float64

	BusinessID uuid.UUID  `gorm:"type:uuid"`
	DriverID   *uuid.UUID `gorm:"type:uuid"`
	Status     string

	PickupLat          *float64
	PickupLng          *float64
	DropoffLat         *float64
	DropoffLng         *float64
	CurrentLat         *float64
	CurrentLng         *float64
	LastLocationUpdate *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	Revision  int64

	Requests []gRequest `gorm:"foreignKey:ShipmentID"`
}

func (gs *gShipment) TableName() string {
	return "shipments"
}

type gRequest struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid"`
	ShipmentID uuid.UUID `gorm:"type:uuid"`
	DriverID   uuid.UUID `gorm:"type:uuid"`
	Status     string
	Position   int
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false"`
}

func (gr *gRequest) TableName() string {
	return "shipment_requests"
}

// mutableColumns are the shipments columns which may change after
// the shipment creation.
var mutableColumns = []string{
	"driver_id", "status",
	"pickup_lat", "pickup_lng", "dropoff_lat", "dropoff_lng",
	"current_lat", "current_lng", "last_location_update",
	"updated_at", "revision",
}

func splitLocation(loc *model.Location) (lat, lng *float64) {
	if loc == nil {
		return nil, nil
	}
	return &loc.Lat, &loc.Lng
}

func joinLocation(lat, lng *float64) *model.Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &model.Location{Lat: *lat, Lng: *lng}
}

func fromModel(s *model.Shipment) *gShipment {
	gs := &gShipment{
		ID:                 s.ID,
		Title:              s.Title,
		FromCity:           s.FromCity,
		ToCity:             s.ToCity,
		Description:        s.Description,
		Deadline:           s.Deadline,
		Weight:             s.Weight,
		Volume:             s.Volume,
		Cost:               s.Cost,
		BusinessID:         s.BusinessID,
		DriverID:           s.DriverID,
		Status:             s.Status.String(),
		LastLocationUpdate: s.LastLocationUpdate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Revision:           s.Revision,
	}
	gs.PickupLat, gs.PickupLng = splitLocation(s.PickupLocation)
	gs.DropoffLat, gs.DropoffLng = splitLocation(s.DropoffLocation)
	gs.CurrentLat, gs.CurrentLng = splitLocation(s.CurrentLocation)
	for i, r := range s.Requests {
		gs.Requests = append(gs.Requests, gRequest{
			ID:         r.ID,
			ShipmentID: s.ID,
			DriverID:   r.DriverID,
			Status:     r.Status.String(),
			Position:   i,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return gs
}

func (gs *gShipment) Model() (*model.Shipment, error) {
	status, err := model.ParseShipmentStatus(gs.Status)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: %w", gs.ID, err)
	}
	s := &model.Shipment{
		ID:                 gs.ID,
		Title:              gs.Title,
		FromCity:           gs.FromCity,
		ToCity:             gs.ToCity,
		Description:        gs.Description,
		Deadline:           gs.Deadline,
		Weight:             gs.Weight,
		Volume:             gs.Volume,
		Cost:               gs.Cost,
		BusinessID:         gs.BusinessID,
		DriverID:           gs.DriverID,
		Status:             status,
		Requests:           make([]model.Request, 0, len(gs.Requests)),
		PickupLocation:     joinLocation(gs.PickupLat, gs.PickupLng),
		DropoffLocation:    joinLocation(gs.DropoffLat, gs.DropoffLng),
		CurrentLocation:    joinLocation(gs.CurrentLat, gs.CurrentLng),
		LastLocationUpdate: gs.LastLocationUpdate,
		CreatedAt:          gs.CreatedAt,
		UpdatedAt:          gs.UpdatedAt,
		Revision:           gs.Revision,
	}
	for _, gr := range gs.Requests {
		rs, err := model.ParseRequestStatus(gr.Status)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", gr.ID, err)
		}
		s.Requests = append(s.Requests, model.Request{
			ID:        gr.ID,
			DriverID:  gr.DriverID,
			Status:    rs,
			CreatedAt: gr.CreatedAt,
			UpdatedAt: gr.UpdatedAt,
		})
	}
	return s, nil
}

func withRequests(gdb *gorm.DB) *gorm.DB {
	return gdb.Preload("Requests", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func models(gss []gShipment) ([]model.Shipment, error) {
	shipments := make([]model.Shipment, 0, len(gss))
	for i := range gss {
		s, err := gss[i].Model()
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, *s)
	}
	return shipments, nil
}

func Create[Q postgres.Queryer](
	ctx context.Context, q Q, s *model.Shipment,
) error {
	gs := fromModel(s)
	err := q.GORM(ctx).Omit(clause.Associations).Create(gs).Error
	if err != nil {
		return postgres.Error("creating shipment", err)
	}
	if len(gs.Requests) == 0 {
		return nil
	}
	if err := q.GORM(ctx).Create(&gs.Requests).Error; err != nil {
		return postgres.Error("creating requests", err)
	}
	return nil
}

func Get[Q postgres.Queryer](
	ctx context.Context, q Q, id uuid.UUID,
) (*model.Shipment, error) {
	return get(q.GORM(ctx), id)
}

func get(gdb *gorm.DB, id uuid.UUID) (*model.Shipment, error) {
	var gs gShipment
	err := withRequests(gdb).Take(&gs, "id = ?", id).Error
	if err != nil {
		return nil, postgres.Error(fmt.Sprintf("finding shipment %s", id), err)
	}
	return gs.Model()
}

// GetForUpdate locks the id shipment row until the end of the `tx`
// transaction. Concurrent GetForUpdate calls block on the same lock,
// so the read-modify-write cycles of one shipment are serialized.
func GetForUpdate(
	ctx context.Context, tx *postgres.Tx, id uuid.UUID,
) (*model.Shipment, error) {
	gdb := tx.GORM(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return get(gdb, id)
}

// Update writes the mutable columns of `s` and upserts its requests.
// Since requests are never removed, all of them are written and the
// stored rows only get their status and updated_at changed.
func Update(ctx context.Context, tx *postgres.Tx, s *model.Shipment) error {
	gs := fromModel(s)
	res := tx.GORM(ctx).Model(&gShipment{ID: s.ID}).Select(
		mutableColumns,
	).Updates(gs)
	if err := res.Error; err != nil {
		return postgres.Error("updating shipment", err)
	}
	if res.RowsAffected != 1 {
		return cerr.NotFound(fmt.Errorf("shipment %s is missing", s.ID))
	}
	if len(gs.Requests) == 0 {
		return nil
	}
	err := tx.GORM(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"status", "updated_at"},
		),
	}).Create(&gs.Requests).Error
	if err != nil {
		return postgres.Error("saving requests", err)
	}
	return nil
}

func ListByBusiness[Q postgres.Queryer](
	ctx context.Context, q Q, businessID uuid.UUID,
) ([]model.Shipment, error) {
	return list(q.GORM(ctx).Where("business_id = ?", businessID))
}

func ListByDriver[Q postgres.Queryer](
	ctx context.Context, q Q, driverID uuid.UUID,
) ([]model.Shipment, error) {
	return list(q.GORM(ctx).Where("driver_id = ?", driverID))
}

func ListPendingByCity[Q postgres.Queryer](
	ctx context.Context, q Q, city string,
) ([]model.Shipment, error) {
	return list(q.GORM(ctx).Where(
		"from_city = ? AND status = ?",
		city, model.ShipmentStatusPending.String(),
	))
}

func list(gdb *gorm.DB) ([]model.Shipment, error) {
	var gss []gShipment
	err := withRequests(gdb).Order("created_at DESC").Find(&gss).Error
	if err != nil {
		return nil, postgres.Error("listing shipments", err)
	}
	return models(gss)
}
