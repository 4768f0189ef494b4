// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/rohandhobale/drivesync/pkg/adapter/config"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/schemauc"
	"github.com/spf13/cobra"
)

const credsRenewalMessage = `
The admin and normal roles passwords are read from the .pgpass file
in the configured pass-dir. Both of them are renewed and written back
into that file, so the old passwords may not be used anymore.`

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For fresh installation in a development or production environment,
the init-dev or init-prod may be used.`,
}

var initDevCmd = &cobra.Command{
	Use:   "init-dev",
	Short: "Initialize database contents with development data",
	Long: `Initialize the drivesync schema with its tables and a few
sample businesses and drivers, suitable for a development environment.
` + credsRenewalMessage + `

The drivesync schema must be either non-existent or empty.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return initDB(func(ctx context.Context, uc *schemauc.InitDBUseCase) error {
			return uc.InitDev(ctx)
		})
	},
	Args: cobra.NoArgs,
}

var initProdCmd = &cobra.Command{
	Use:   "init-prod",
	Short: "Initialize database contents with production suitable data",
	Long: `Initialize the drivesync schema with its empty tables.
` + credsRenewalMessage + `

The drivesync schema must be either non-existent or empty. Otherwise, it
will not be modified and an error will be reported.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return initDB(func(ctx context.Context, uc *schemauc.InitDBUseCase) error {
			return uc.InitProd(ctx)
		})
	},
	Args: cobra.NoArgs,
}

func initDB(
	f func(ctx context.Context, uc *schemauc.InitDBUseCase) error,
) error {
	ctx := context.Background()
	c, err := config.LoadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("config.LoadFile(%q): %w", cfgPath, err)
	}
	if err = f(ctx, schemauc.NewInitDB(c.Database)); err != nil {
		return fmt.Errorf("initializing DB: %w", err)
	}
	return nil
}

func init() {
	dbCmd.AddCommand(initDevCmd, initProdCmd)
	rootCmd.AddCommand(dbCmd)
}
