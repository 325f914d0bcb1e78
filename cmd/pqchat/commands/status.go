package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <peer>",
		Short: "Ask the relay whether a peer is online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			peer, err := peerArg(args[0])
			if err != nil {
				return err
			}
			online, err := wire.Directory.Online(cmd.Context(), user, peer)
			if err != nil {
				return err
			}
			state := "offline"
			if online {
				state = "online"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", peer, state)
			return nil
		},
	}
}
