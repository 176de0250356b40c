package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/sandbox"
)

func newSandboxCmd(a *app) *cobra.Command {
	var (
		addr    string
		apiKey  string
		ownerID int64
	)

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local fake of the remote API",
		Long:  "Serve installation, device-server, session-server and user under " + sandbox.BasePath + " with signed responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.SandboxAddr
			}

			srv, err := sandbox.New(sandbox.Config{
				APIKey:  apiKey,
				OwnerID: ownerID,
				Logger:  a.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default BUNQ_SANDBOX_ADDR)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Only accept this api key (default: any)")
	cmd.Flags().Int64Var(&ownerID, "owner-id", sandbox.DefaultOwnerID, "Owner id returned at session creation")

	return cmd
}
