// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// overrideFromEnv replaces the secrets and endpoints which are set by
// their DRIVESYNC_* environment variables. Keys follow the yaml paths,
// so `auth.secret` is read from DRIVESYNC_AUTH_SECRET.
func (c *Config) overrideFromEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	str("auth.secret", &c.Auth.Secret)
	str("database.host", &c.Database.Host)
	str("cache.addr", &c.Cache.Addr)
	str("events.rabbitmq.url", &c.Events.RabbitMQ.URL)
	str("gin.addr", &c.Gin.Addr)
	if v.GetString("database.port") != "" {
		c.Database.Port = v.GetInt("database.port")
		if c.Database.Port == 0 {
			return errInvalidPort
		}
	}
	if s := v.GetString("events.kafka.brokers"); s != "" {
		c.Events.Kafka.Brokers = splitList(s)
	}
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
