// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram declares the password hashing port which is needed by
// the schemauc package. When database roles are created or their
// passwords are renewed, only the SCRAM verifier of a password is sent
// to the DBMS, so the plaintext password never appears in a DDL query
// (which may be logged by the server).
package scram

// Hasher computes SCRAM verifiers with a fixed underlying hash function
// such as SHA-256.
type Hasher interface {
	// Hash computes the verifier of the non-empty `pass` password in
	// the format which is accepted by the PostgreSQL ALTER ROLE and
	// CREATE ROLE commands:
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	//
	// The `salt` is the base64 encoding of the salt bytes. An empty
	// salt asks for a random salt. The `iters` must be 4096 or more.
	Hash(pass, salt string, iters int) (string, error)
}
