// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rohandhobale/drivesync/pkg/adapter/auth/jwt"
	"github.com/rohandhobale/drivesync/pkg/adapter/config/settings"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin"
)

// Gin contains the gin-gonic related configuration settings.
// Fields are defined as pointers, so it is possible to detect if they
// are or are not initialized.
type Gin struct {
	Addr     string // listening address, :8080 by default
	Logger   *bool  // Whether to log the requests using slog
	Recovery *bool  // Whether to register the gin.Recovery() middleware

	// CORSOrigins lists the browser origins which may call the API.
	// An empty list disables the CORS middleware.
	CORSOrigins []string `yaml:"cors-origins"`
}

func (g *Gin) normalize() {
	if g.Addr == "" {
		g.Addr = ":8080"
	}
	settings.Nil2Zero(&g.Logger)
	settings.Nil2Zero(&g.Recovery)
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings.
func (g Gin) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 3)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger(slog.Default()))
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	if len(g.CORSOrigins) > 0 {
		middlewares = append(middlewares, gin.CORS(g.CORSOrigins))
	}
	return gin.New(middlewares...)
}

// Auth contains the bearer tokens settings.
type Auth struct {
	// Secret is the HS256 key which is shared with the authentication
	// service. It is usually given by DRIVESYNC_AUTH_SECRET.
	Secret   string
	Issuer   string
	TokenTTL *settings.Duration `yaml:"token-ttl"`
}

var (
	minTokenTTL = settings.Duration(time.Minute)
	maxTokenTTL = settings.Duration(720 * time.Hour)
)

// ValidateAndNormalize checks the secret length and the token ttl
// range, using 24h as the default ttl.
func (a *Auth) ValidateAndNormalize() error {
	if len(a.Secret) < jwt.MinSecretLen {
		return fmt.Errorf(
			"secret must have at least %d bytes", jwt.MinSecretLen,
		)
	}
	settings.Default(&a.TokenTTL, settings.Duration(24*time.Hour))
	if err := settings.VerifyRange(
		&a.TokenTTL, &minTokenTTL, &maxTokenTTL,
	); err != nil {
		return fmt.Errorf("token-ttl=%v: %w", time.Duration(*err.Value), err)
	}
	return nil
}

// NewAuthenticator creates a tokens verifier (and issuer).
func (a Auth) NewAuthenticator() (*jwt.Authenticator, error) {
	if a.TokenTTL == nil {
		return nil, errors.New("auth settings are not normalized")
	}
	return jwt.New([]byte(a.Secret), a.Issuer, time.Duration(*a.TokenTTL))
}
