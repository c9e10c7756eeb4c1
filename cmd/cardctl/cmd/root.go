package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/config"
	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/jrsteele09/go-card-portal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	apiURL         string
	dataFolder     string
	storageBackend string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Card Portal CLI - virtual card client",
	Long: `cardctl signs in to the Card Portal backend and works with virtual cards,
card requests and notifications. The session is kept in the data folder
between runs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cfg := config.New()
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", cfg.GetAPIBaseURL(), "Card Portal backend URL (also API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dataFolder, "data-folder", cfg.GetDataFolder(), "Folder the session is stored in (also FOLDER)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", string(cfg.GetStorageBackend()), "Session storage: file, sqlite or memory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// withPortal starts a portal for the duration of fn
func withPortal(cmd *cobra.Command, fn func(p *portal.Portal) error, opts ...portal.Option) error {
	store, err := storage.Open(config.StorageBackend(storageBackend), dataFolder)
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}

	opts = append([]portal.Option{portal.WithBaseURL(apiURL), portal.WithStore(store), portal.WithoutPolling()}, opts...)
	p, err := portal.New(config.New(), opts...)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Err(err).Msg("failed to close portal")
		}
	}()

	if err := p.Start(cmd.Context()); err != nil {
		return err
	}
	return fn(p)
}

// requireSession fails early when no session was restored
func requireSession(p *portal.Portal) error {
	if !p.Auth.IsAuthenticated() {
		return errors.New("not logged in, run 'cardctl login' first")
	}
	return nil
}
