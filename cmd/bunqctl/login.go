package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/client"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Bring the stored context to a live session",
		Long:  "Run the missing installation, device registration and session steps and save the context to BUNQ_CONTEXT_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.FromConfig(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			if err := c.EnsureSession(cmd.Context()); err != nil {
				return err
			}

			sess := c.Context()
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\nowner: %d\n", sess.State(), sess.OwnerID)

			return nil
		},
	}
}
