// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package jwt verifies (and for development purposes, issues) the HS256
// signed bearer tokens which identify drivesync callers. Tokens are
// normally issued by the external authentication service and carry the
// userId and userType claims.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

// MinSecretLen is the minimum accepted length of the signing secret.
const MinSecretLen = 32

// Claims is the payload of a drivesync token.
type Claims struct {
	UserID   uuid.UUID `json:"userId"`
	UserType string    `json:"userType"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies tokens using a shared secret.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New creates an Authenticator. The `issuer` is optional. When it is
// not empty, it is set on issued tokens and required on verified ones.
func New(secret []byte, issuer string, ttl time.Duration) (
	*Authenticator, error,
) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf(
			"secret must have at least %d bytes", MinSecretLen,
		)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Authenticator{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue mints a token for the `p` principal which expires after the
// configured ttl.
func (a *Authenticator) Issue(p model.Principal) (string, error) {
	now := a.now()
	c := Claims{
		UserID:   p.ID,
		UserType: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := t.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return s, nil
}

// Verify checks the `token` signature and expiration and returns the
// principal which it identifies. All failures are reported as
// authentication errors.
func (a *Authenticator) Verify(token string) (model.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	c := &Claims{}
	_, err := jwt.ParseWithClaims(
		token, c, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, opts...,
	)
	if err != nil {
		return model.Principal{}, cerr.Authentication(
			fmt.Errorf("invalid token: %w", err),
		)
	}
	if c.UserID == uuid.Nil {
		return model.Principal{}, cerr.Authentication(
			errors.New("token has no userId"),
		)
	}
	r, err := model.ParseRole(c.UserType)
	if err != nil {
		return model.Principal{}, cerr.Authentication(
			fmt.Errorf("userType %q: %w", c.UserType, err),
		)
	}
	return model.Principal{ID: c.UserID, Role: r}, nil
}
