// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows drivesync to instantiate different
// components, from the adapter or use cases layers, using those loaded
// configuration settings.
// The parsed and validated configurations are passed to their
// ultimate components as a series of individual params (for the
// mandatory items) and a series of functional options (for the
// optional items), so no component reads a global configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables which may override
// the configuration file settings, e.g., DRIVESYNC_AUTH_SECRET.
const EnvPrefix = "DRIVESYNC"

// Config contains all drivesync configuration settings.
type Config struct {
	Database Database
	Gin      Gin
	Auth     Auth
	Cache    Cache
	Events   Events
	Usecases Usecases
}

// LoadFile loads the `.env` file of the working directory (if it
// exists) into the process environment and then loads the `path`
// configuration file using the Load function.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Load(data)
}

// Load unmarshals the data byte slice as a yaml document, overrides
// the settings which have a corresponding DRIVESYNC_* environment
// variable, and finally validates and normalizes the result.
// Extra items in the data will be ignored and missing items will take
// their default values.
func Load(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.overrideFromEnv(); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values with
// their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	c.Gin.normalize()
	if err := c.Auth.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating auth settings: %w", err)
	}
	if err := c.Cache.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating cache settings: %w", err)
	}
	if err := c.Events.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating events settings: %w", err)
	}
	if err := c.Usecases.Shipments.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating shipments settings: %w", err)
	}
	return nil
}

// LogValue implements slog.LogValuer. Secrets and passwords
// directories are left out.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("database",
			slog.String("host", c.Database.Host),
			slog.Int("port", c.Database.Port),
			slog.String("name", c.Database.Name),
			slog.String("auth-method", c.Database.AuthMethod),
			slog.Any("max-conns", c.Database.MaxConns),
		),
		slog.Group("gin",
			slog.String("addr", c.Gin.Addr),
			slog.Any("cors-origins", c.Gin.CORSOrigins),
		),
		slog.Group("auth",
			slog.String("issuer", c.Auth.Issuer),
			slog.Any("token-ttl", c.Auth.TokenTTL),
		),
		slog.Group("cache",
			slog.String("addr", c.Cache.Addr),
			slog.Any("ttl", c.Cache.TTL),
		),
		slog.Group("events",
			slog.Any("kafka-brokers", c.Events.Kafka.Brokers),
			slog.Bool("rabbitmq", c.Events.RabbitMQ.URL != ""),
			slog.Any("ping-period", c.Events.WebSocket.PingPeriod),
		),
	)
}
