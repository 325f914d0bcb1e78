package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"pqchat/internal/app"
	"pqchat/internal/domain"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [peer]",
		Short: "Decrypt and print stored conversations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireLogin()
			if err != nil {
				return err
			}
			var peer domain.UserID
			if len(args) == 1 {
				if peer, err = peerArg(args[0]); err != nil {
					return err
				}
			}
			all, err := app.LocalHistories(cmd.Context(), wire, user, passphrase, peer)
			if err != nil {
				return err
			}
			peers := make([]string, 0, len(all))
			for p := range all {
				peers = append(peers, string(p))
			}
			sort.Strings(peers)
			out := cmd.OutOrStdout()
			for _, p := range peers {
				fmt.Fprintf(out, "== %s ==\n", p)
				for _, m := range all[domain.UserID(p)] {
					printMessage(out, user, m)
				}
			}
			return nil
		},
	}
}

func printMessage(out io.Writer, self domain.UserID, m domain.DecryptedMessage) {
	from := m.Peer
	if m.Direction == domain.DirectionOutgoing {
		from = self
	}
	ts := time.Unix(0, m.CreatedAt).Format("2006-01-02 15:04:05")
	fmt.Fprintf(out, "[%s] %s: %s\n", ts, from, m.Text)
}
