package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/client"
)

func newUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show the session owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.FromConfig(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			if err := c.EnsureSession(cmd.Context()); err != nil {
				return err
			}

			user, err := c.User(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %s (%s)\n", user.ID, user.DisplayName, user.Type)

			return nil
		},
	}
}
