// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"

	"github.com/google/uuid"
)

// Role specifies the account type of a user. Businesses post shipments
// and drivers carry them. Roles are issued by the authentication
// service and are (de)serialized as strings.
type Role string

// Valid values for the Role type.
const (
	RoleBusiness Role = "business"
	RoleDriver   Role = "driver"
)

// ErrUnknownRole indicates that a string is not a known account type.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole parses the given account type string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleBusiness, RoleDriver:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// Principal is the verified identity of a caller. It is established by
// the authentication adapter and trusted by the use cases layer.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// IsBusiness reports if the principal is a business account.
func (p Principal) IsBusiness() bool {
	return p.Role == RoleBusiness
}

// IsDriver reports if the principal is a driver account.
func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}

// These values are used for a Party whose user record could not be
// found. They are visible to clients as a sentinel value.
const (
	UnavailableUsername      = "unavailable"
	UnavailableVehicleType   = "unknown"
	UnavailableContactNumber = "not available"
)

// Party contains the display information of a business or a driver
// as presented next to a shipment. A party whose user record is missing
// is represented by the UnavailableParty placeholder.
type Party struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	ContactNumber string    `json:"contactNumber,omitempty"`
	VehicleType   string    `json:"vehicleType,omitempty"`
	BusinessName  string    `json:"businessName,omitempty"`
}

// UnavailableParty returns the placeholder Party for the id user.
func UnavailableParty(id uuid.UUID) Party {
	return Party{
		ID:            id,
		Username:      UnavailableUsername,
		VehicleType:   UnavailableVehicleType,
		ContactNumber: UnavailableContactNumber,
	}
}

// IsUnavailable reports if `p` is a placeholder party.
func (p Party) IsUnavailable() bool {
	return p.Username == UnavailableUsername
}
