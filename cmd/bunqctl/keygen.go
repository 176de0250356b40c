package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitalvas/bunq/keys"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		bits  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the client key",
		Long:  "Generate an RSA key pair and write it to BUNQ_KEY_PATH (.pem, or .jwk/.json for JWK)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.KeyPath

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to replace it", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			kp, err := keys.GenerateBits(bits)
			if err != nil {
				return err
			}

			if err := kp.SaveFile(path); err != nil {
				return err
			}

			a.logger.Info("client key written", "path", path, "key", kp)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", path, kp.Fingerprint())

			return nil
		},
	}

	cmd.Flags().IntVarP(&bits, "bits", "b", keys.DefaultBits, "RSA key size in bits")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing key file")

	return cmd
}
