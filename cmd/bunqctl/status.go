package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/client"
	"github.com/vitalvas/bunq/logger"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored context",
		Long:  "Print the handshake state of the stored context without contacting the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := client.StoreFromConfig(a.cfg).Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "context: %s\n", a.cfg.ContextPath)
			fmt.Fprintf(out, "state: %s\n", sess.State())

			if sess.IsInstalled() {
				fmt.Fprintf(out, "installation token: %s\n", logger.Redact(sess.InstallationToken))
			}

			if sess.IsRegistered() {
				fmt.Fprintf(out, "device: %s\n", sess.DeviceID)
			}

			if sess.IsLive() {
				fmt.Fprintf(out, "session token: %s\nowner: %d\n", logger.Redact(sess.SessionToken), sess.OwnerID)
			}

			return nil
		},
	}
}
