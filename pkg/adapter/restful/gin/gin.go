// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine construction, so the config
// package may create an engine with the desired middlewares without
// depending on the gin-gonic packages directly.
package gin

import (
	"log/slog"
	"net/http"
	"time"

	ginslog "github.com/FabienMht/ginslog/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

// New creates an engine whose contexts fall back to their request
// contexts, so values attached by middlewares (e.g., log attributes)
// reach the use cases.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.ContextWithFallback = true
	e.Use(middlewares...)
	return e
}

// Logger logs each request using the `l` structured logger.
func Logger(l *slog.Logger) HandlerFunc {
	return ginslog.New(l)
}

func Recovery() HandlerFunc {
	return gin.Recovery()
}

// CORS allows the `origins` browser origins to call the API with
// bearer tokens.
func CORS(origins []string) HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodOptions,
		},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}
