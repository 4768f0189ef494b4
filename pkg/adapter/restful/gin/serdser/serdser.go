// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the serialization and deserialization
// helpers which are shared by all resources. Errors are rendered as
// {"detail": "..."} objects, while the binding validation failures
// are rendered as {"<field>": ["msg", ...]} objects.
package serdser

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/cerr"
	"github.com/rohandhobale/drivesync/pkg/core/log"
)

var jsonNames sync.Once

// useJSONNames makes the validator report fields by their json names,
// so clients may match errors with their request fields.
func useJSONNames() {
	jsonNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func Bind(c *gin.Context, req any, b binding.Binding) bool {
	useJSONNames()
	switch err := c.ShouldBindWith(req, b).(type) {
	case *validator.InvalidValidationError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		if err == nil {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

// ParseID parses the `name` path param as a UUID. If it is malformed,
// a 400 response is written and false is returned.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		var errs map[string][]string
		AddErr(&errs, name, "Path param "+name+" is not a UUID.")
		c.JSON(http.StatusBadRequest, errs)
		return uuid.Nil, false
	}
	return id, true
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	if elist, ok := (*errs)[name]; !ok {
		(*errs)[name] = msgs
	} else {
		(*errs)[name] = append(elist, msgs...)
	}
}

// SerErr writes `err` with the status code which is carried by its
// *cerr.Error. Other errors are unexpected, so they are logged and
// reported with 500.
func SerErr(c *gin.Context, err error) {
	code := cerr.StatusCode(err)
	var ce *cerr.Error
	if errors.As(err, &ce) {
		if code >= http.StatusInternalServerError {
			log.Warn(c, "service unavailable", log.Err("err", err))
		}
		c.JSON(code, gin.H{
			"detail": ce.Err.Error(),
		})
		return
	}
	log.Error(c, "unexpected error", log.Err("err", err))
	c.JSON(code, gin.H{
		"detail": err.Error(),
	})
}
