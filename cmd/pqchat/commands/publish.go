package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// publish: upload the public halves of the identity to the relay.
func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload your public keys to the relay directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			if err := wire.Identities.Publish(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published keys for %s to %s\n", user, cfg.RelayURL)
			return nil
		},
	}
}
