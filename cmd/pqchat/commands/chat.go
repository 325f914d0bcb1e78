package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"pqchat/internal/app"
	"pqchat/internal/domain"
	"pqchat/internal/util/memzero"
)

// chat <peer>: establish (or resume) a session and exchange lines from stdin.
func chatCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "chat <peer>",
		Short: "Open a session with a peer and chat interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireLogin()
			if err != nil {
				return err
			}
			peer, err := peerArg(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c, err := app.Open(ctx, wire, user, passphrase, app.Options{AutoAccept: true})
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			var printMu sync.Mutex
			established := make(chan struct{})
			var once sync.Once
			go func() {
				for ev := range c.Events() {
					printMu.Lock()
					printEvent(out, user, ev)
					printMu.Unlock()
					if ev.Kind == app.EventEstablished && ev.Peer == peer {
						once.Do(func() { close(established) })
					}
				}
			}()
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					wire.Log.Warn("connection ended", "error", err)
				}
				stop()
			}()

			key, err := c.Sessions().SessionKey(ctx, peer)
			memzero.Zero(key)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionMissing) {
					return err
				}
				if err := c.Sessions().RequestSession(ctx, peer); err != nil {
					return err
				}
				fmt.Fprintf(out, "Waiting for %s to accept...\n", peer)
				select {
				case <-established:
				case <-time.After(timeout):
					return fmt.Errorf("no answer from %s within %s", peer, timeout)
				case <-ctx.Done():
					return nil
				}
			} else {
				history, err := c.Messages().History(ctx, peer)
				if err != nil {
					wire.Log.Warn("history unavailable", "peer", peer, "error", err)
				}
				printMu.Lock()
				for _, m := range history {
					printMessage(out, user, m)
				}
				printMu.Unlock()
			}

			fmt.Fprintf(out, "Chatting with %s. Type /quit to leave.\n", peer)
			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					lines <- sc.Text()
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					line = strings.TrimSpace(line)
					if line == "" {
						continue
					}
					if line == "/quit" {
						return nil
					}
					if _, err := c.Messages().Send(ctx, peer, line); err != nil {
						printMu.Lock()
						fmt.Fprintf(out, "! not sent: %v\n", err)
						printMu.Unlock()
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the peer to accept")
	return cmd
}
