// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/core/model"
)

type PartiesQueryer interface {
	// Parties finds the display info of the given users. Unknown ids
	// are skipped silently, so callers can substitute placeholders.
	Parties(
		ctx context.Context, ids []uuid.UUID,
	) (map[uuid.UUID]model.Party, error)
}

type Parties interface {
	Conn(Conn) PartiesQueryer
	Tx(Tx) PartiesQueryer
}
