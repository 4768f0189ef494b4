// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram implements the core scram.Hasher port on top of the
// github.com/xdg-go/scram module. Both of the SCRAM-SHA-256 and
// SCRAM-SHA-1 mechanisms are supported since PostgreSQL servers may
// be configured to accept either of them.
package scram

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/xdg-go/scram"
)

// MinIterations is the least PBKDF2 iterations count which is accepted
// by the Hash method.
const MinIterations = 4096

var b64 = base64.StdEncoding

// Mechanism is a SCRAM mechanism with a fixed hash function.
type Mechanism struct {
	gen      scram.HashGeneratorFcn
	saltSize int
	name     string
}

// SHA256 returns the SCRAM-SHA-256 mechanism.
func SHA256() *Mechanism {
	return &Mechanism{gen: scram.SHA256, saltSize: 32, name: "SCRAM-SHA-256"}
}

// SHA1 returns the SCRAM-SHA-1 mechanism.
func SHA1() *Mechanism {
	return &Mechanism{gen: scram.SHA1, saltSize: 20, name: "SCRAM-SHA-1"}
}

// Name returns the mechanism name as used in the verifier strings.
func (m *Mechanism) Name() string {
	return m.name
}

// Hash computes the SCRAM verifier of `pass` using the base64 encoded
// `salt` (or a random salt if it is empty) and `iters` iterations.
func (m *Mechanism) Hash(pass, salt string, iters int) (string, error) {
	if pass == "" {
		return "", errors.New("password must be non-empty")
	}
	if iters < MinIterations {
		return "", fmt.Errorf(
			"iters (%d) is less than %d", iters, MinIterations,
		)
	}
	if salt == "" {
		raw := make([]byte, m.saltSize)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("creating random salt: %w", err)
		}
		salt = b64.EncodeToString(raw)
	}
	rawSalt, err := b64.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decoding base64 salt: %w", err)
	}
	// username and authzID do not affect the stored credentials.
	c, err := m.gen.NewClient("-", pass, "")
	if err != nil {
		return "", fmt.Errorf("preparing password: %w", err)
	}
	sc := c.GetStoredCredentials(scram.KeyFactors{
		Salt:  string(rawSalt),
		Iters: iters,
	})
	return fmt.Sprintf(
		"%s$%d:%s$%s:%s", m.name, iters, salt,
		b64.EncodeToString(sc.StoredKey),
		b64.EncodeToString(sc.ServerKey),
	), nil
}
