// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// their registration on a gin-gonic engine.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/middleware"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/shipmentrs"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/trackrs"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
)

// BasePath is the common prefix of all drivesync APIs.
const BasePath = "/api/drivesync/v1"

// Register adapts the `shipments` use case with the REST APIs and
// registers them on the `e` engine behind the bearer token verifier.
// The `tracker` streams the live tracking events. It may be nil, so
// the tracking endpoint is not registered.
func Register(
	e *gin.Engine,
	shipments *shipmentuc.UseCase,
	v middleware.Verifier,
	tracker trackrs.Tracker,
) {
	r := e.Group(BasePath, middleware.Authenticate(v))
	shipmentrs.Register(r, shipments)
	if tracker != nil {
		trackrs.Register(r, shipments, tracker)
	}
}
