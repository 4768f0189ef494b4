// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rohandhobale/drivesync/pkg/adapter/config"
	"github.com/rohandhobale/drivesync/pkg/core/model"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for development",
	Long: `Mint a bearer token which is signed by the configured auth
secret. Tokens are normally issued by the authentication service, so
this command is only useful for development and manual testing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := uuid.Parse(tokenUser)
		if err != nil {
			return fmt.Errorf("parsing --user: %w", err)
		}
		r, err := model.ParseRole(tokenRole)
		if err != nil {
			return fmt.Errorf("parsing --role: %w", err)
		}
		c, err := config.LoadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("config.LoadFile(%q): %w", cfgPath, err)
		}
		a, err := c.Auth.NewAuthenticator()
		if err != nil {
			return fmt.Errorf("creating authenticator: %w", err)
		}
		tok, err := a.Issue(model.Principal{ID: id, Role: r})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (uuid)")
	tokenCmd.Flags().StringVar(
		&tokenRole, "role", string(model.RoleDriver), "business or driver",
	)
	tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
