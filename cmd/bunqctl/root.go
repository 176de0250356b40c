package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/config"
	"github.com/vitalvas/bunq/logger"
)

// app holds what every subcommand needs once the configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "bunqctl",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Signed session client for the bunq API",
		Long:              `bunqctl creates the client key, performs the installation, device and session handshake and keeps the resulting context on disk`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = logger.New(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel), cfg.Environment)

			return nil
		},
	}

	rootCmd.AddCommand(
		newKeygenCmd(a),
		newLoginCmd(a),
		newStatusCmd(a),
		newUserCmd(a),
		newSandboxCmd(a),
	)

	return rootCmd
}
