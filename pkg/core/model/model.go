// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
//
// The Shipment aggregate and its embedded Request entities are defined
// here together with all of their lifecycle rules. A shipment is posted
// by a business, drivers append requests to it, the business accepts
// one request (assigning its driver and rejecting all siblings), and
// the assigned driver reports progress and location until the shipment
// reaches a terminal status. Methods of the Shipment type mutate the
// aggregate in memory and report violations as errors, so adapters may
// persist the resulting state within a single transaction.
//
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., json tags for the REST API
// responses) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
package model
