package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pqchat/internal/services/identity"
)

func initCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireLogin()
			if err != nil {
				return err
			}
			if err := identity.CheckPassphrase(passphrase); err != nil {
				return err
			}
			ctx := cmd.Context()
			exists, err := wire.Identities.IdentityExists(ctx, user)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("identity %s already exists; run wipe first to replace it", user)
			}
			if _, err := wire.Identities.GenerateIdentity(ctx, user, passphrase); err != nil {
				return err
			}
			fp, err := wire.Identities.Fingerprint(ctx, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created for %s.\nFingerprint: %s\n", user, fp)

			if publish {
				if err := wire.Identities.Publish(ctx, user); err != nil {
					return fmt.Errorf("publish keys: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Public keys published.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also upload the public keys to the relay")
	return cmd
}
