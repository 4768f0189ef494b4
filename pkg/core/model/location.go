// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "fmt"

// Location represents a geographical position with a latitude and
// longitude, as picked on the map or reported by a driver device.
type Location struct {
	Lat float64 `json:"lat"` // latitude in degrees, within [-90, 90]
	Lng float64 `json:"lng"` // longitude in degrees, within [-180, 180]
}

// Validate returns a *ValidationError if the location is out of range.
func (l Location) Validate(field string) error {
	switch {
	case l.Lat < -90 || l.Lat > 90:
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("latitude %v is out of range", l.Lat),
		}
	case l.Lng < -180 || l.Lng > 180:
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("longitude %v is out of range", l.Lng),
		}
	}
	return nil
}
