// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings contains the value types and helpers which are
// shared by the configuration sections, so each section can keep its
// optional fields as pointers and fill or verify them uniformly.
package settings

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Duration is a time.Duration which is read from YAML and environment
// variables in the time.ParseDuration format, e.g., 90s or 10m.
type Duration time.Duration

// UnmarshalText parses the `data` duration. The receiver is updated
// only if parsing succeeds.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// Marshal formats `d` without its zero trailing units, so one hour is
// shown as 1h instead of 1h0m0s. A nil `d` gives a nil string.
func (d *Duration) Marshal() *string {
	if d == nil {
		return nil
	}
	s := (*time.Duration)(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return &s
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) MarshalText() ([]byte, error) {
	if s := d.Marshal(); s != nil {
		return []byte(*s), nil
	}
	return nil, errors.New("nil duration")
}

func (d *Duration) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("nil-duration")
	}
	return slog.DurationValue(time.Duration(*d))
}

// Nil2Zero makes the nil (*t) pointer to point to a zero T value.
// A non-nil (*t) is kept as is.
func Nil2Zero[T any](t **T) {
	var zero T
	Default(t, zero)
}

// Default makes the nil (*t) pointer to point to a copy of `v`.
// A non-nil (*t) is kept as is, so explicit settings win.
func Default[T any](t **T, v T) {
	if (*t) != nil {
		return
	}
	(*t) = &v
}

// OutOfRangeError reports a setting whose Value was outside of its
// acceptable [Min, Max] range. Value is nil when the range itself was
// invalid.
type OutOfRangeError[T cmp.Ordered] struct {
	Value        *T
	Min, Max     *T
	LessThanMin  bool
	InvalidRange bool
}

func (e *OutOfRangeError[T]) Error() string {
	switch {
	case e.InvalidRange:
		return "min is greater than max"
	case e.LessThanMin:
		return fmt.Sprintf("value is less than min (%v)", *e.Min)
	default:
		return fmt.Sprintf("value is greater than max (%v)", *e.Max)
	}
}

// VerifyRange checks that (*value) is nil or lies between the non-nil
// minb and maxb boundaries. An out of range value is clamped to the
// violated boundary, and its original value is kept in the returned
// error.
func VerifyRange[T cmp.Ordered](
	value **T, minb, maxb *T,
) *OutOfRangeError[T] {
	switch {
	case minb != nil && maxb != nil && (*minb) > (*maxb):
		return &OutOfRangeError[T]{InvalidRange: true}
	case (*value) == nil:
		return nil
	}
	v := **value
	if minb != nil && v < *minb {
		**value = *minb
		return &OutOfRangeError[T]{
			Value: &v, Min: minb, Max: maxb, LessThanMin: true,
		}
	}
	if maxb != nil && v > *maxb {
		**value = *maxb
		return &OutOfRangeError[T]{Value: &v, Min: minb, Max: maxb}
	}
	return nil
}
