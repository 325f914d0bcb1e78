package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pqchat/internal/app"
	"pqchat/internal/domain"
	"pqchat/internal/observability/logging"
)

var (
	cfg        app.Config
	wire       *app.Wire
	username   string
	passphrase string
)

func Execute() error {
	root := &cobra.Command{
		Use:           "pqchat",
		Short:         "Post-quantum end-to-end encrypted chat",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			env := app.ConfigFromEnv()
			if cfg.Home == "" {
				cfg.Home = env.Home
			}
			if cfg.RelayURL == "" {
				cfg.RelayURL = env.RelayURL
			}
			if cfg.Store == "" {
				cfg.Store = env.Store
			}
			if cfg.LogLevel == "" {
				cfg.LogLevel = env.LogLevel
			}
			resolved, err := cfg.WithDefaults()
			if err != nil {
				return err
			}
			cfg = resolved
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			logger := logging.NewLogger(logging.Config{
				ServiceName: "pqchat",
				Level:       cfg.LogLevel,
				Format:      "text",
			})
			w, err := app.NewWire(cfg, logger)
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Home, "home", "", "data dir (default ~/.pqchat)")
	pf.StringVar(&cfg.RelayURL, "relay", "", "relay base URL (default http://127.0.0.1:8000)")
	pf.StringVar(&cfg.Store, "store", "", "store location: a directory, sqlite:<path> or postgres://… (default <home>/store)")
	pf.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVarP(&username, "user", "u", "", "your user id")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting your keys")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		publishCmd(),
		chatCmd(),
		listenCmd(),
		historyCmd(),
		statusCmd(),
		wipeCmd(),
	)
	return root.Execute()
}

func requireUser() (domain.UserID, error) {
	if username == "" {
		return "", fmt.Errorf("user required (-u)")
	}
	user := domain.UserID(username)
	if err := domain.ValidateUserID(user); err != nil {
		return "", err
	}
	return user, nil
}

func peerArg(arg string) (domain.UserID, error) {
	peer := domain.UserID(arg)
	if err := domain.ValidateUserID(peer); err != nil {
		return "", fmt.Errorf("peer: %w", err)
	}
	return peer, nil
}

func requireLogin() (domain.UserID, error) {
	user, err := requireUser()
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", fmt.Errorf("passphrase required (-p)")
	}
	return user, nil
}
