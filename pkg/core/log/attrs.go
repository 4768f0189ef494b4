// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"

	"github.com/google/uuid"
)

func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err gives the "no-error" string for a nil error.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

func UUID(key string, value uuid.UUID) slog.Attr {
	return slog.String(key, value.String())
}

// OptionalUUID gives the "none" string for a nil id, e.g., for a
// shipment which has no assigned driver yet.
func OptionalUUID(key string, value *uuid.UUID) slog.Attr {
	if value == nil {
		return slog.String(key, "none")
	}
	return UUID(key, *value)
}
