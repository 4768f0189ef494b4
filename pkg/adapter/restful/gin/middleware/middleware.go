// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package middleware authenticates the API callers. The verified
// principal is kept in the gin context for the resources, and it is
// attached to the request context as log attributes.
package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/serdser"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

const principalKey = "drivesync.principal"

// Verifier checks a bearer token and returns its principal.
type Verifier interface {
	Verify(token string) (model.Principal, error)
}

// Authenticate takes the token from the `Authorization: Bearer` header
// or, for browsers which cannot set headers on websockets, from the
// `token` query param. Requests without a valid token are aborted
// with 401.
func Authenticate(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			serdser.SerErr(c, cerr.Authentication(
				errors.New("missing bearer token"),
			))
			c.Abort()
			return
		}
		p, err := v.Verify(token)
		if err != nil {
			serdser.SerErr(c, err)
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(log.WithAttrs(
			c.Request.Context(),
			log.UUID("userId", p.ID),
			slog.String("role", string(p.Role)),
		))
		c.Next()
	}
}

func bearer(h string) string {
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Principal returns the caller which was verified by Authenticate.
// It panics if the Authenticate middleware was not registered.
func Principal(c *gin.Context) model.Principal {
	return c.MustGet(principalKey).(model.Principal)
}
