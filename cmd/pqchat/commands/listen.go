package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pqchat/internal/app"
	"pqchat/internal/domain"
)

// listen: stay connected, accept incoming sessions and print what arrives.
func listenCmd() *cobra.Command {
	var autoAccept bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stay online, accept sessions and print messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireLogin()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := app.Open(ctx, wire, user, passphrase, app.Options{AutoAccept: autoAccept})
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			restored := c.Messages().RestoreHistories(ctx)
			fmt.Fprintf(out, "Listening as %s (%d stored conversations). Ctrl-C to stop.\n", user, len(restored))

			done := make(chan error, 1)
			go func() { done <- c.Run(ctx) }()
			for ev := range c.Events() {
				printEvent(out, user, ev)
			}
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&autoAccept, "auto-accept", true, "accept every incoming session request")
	return cmd
}

func printEvent(out io.Writer, self domain.UserID, ev app.Event) {
	switch ev.Kind {
	case app.EventRequest:
		fmt.Fprintf(out, "* %s wants to chat\n", ev.Peer)
	case app.EventEstablished:
		fmt.Fprintf(out, "* secure session with %s established\n", ev.Peer)
	case app.EventMessage:
		printMessage(out, self, ev.Message)
	case app.EventPresence:
		state := "offline"
		if ev.Online {
			state = "online"
		}
		fmt.Fprintf(out, "* %s is %s\n", ev.Peer, state)
	case app.EventError:
		fmt.Fprintf(out, "! dropped frame from %s: %v\n", ev.Peer, ev.Err)
	}
}
