package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"minna-client/internal/api"
	"minna-client/internal/config"
	"minna-client/internal/playback"
	"minna-client/internal/protocol"
	"minna-client/internal/session"
	"minna-client/internal/transport"
	"minna-client/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "minna-client",
	Short: "Headless watch-party client: joins a channel, keeps playback in sync, serves a local view API",
	RunE:  runClient,
}

var (
	flagServerURL string
	flagProxyURL  string
	flagChannel   string
	flagUsername  string
	flagListen    string
	flagLogLevel  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server-url", "", "ws/wss sync server url (overrides MINNA_SERVER_URL)")
	flags.StringVar(&flagProxyURL, "proxy-url", "", "catalog/stream proxy base url (overrides MINNA_PROXY_URL)")
	flags.StringVar(&flagChannel, "channel", "", "channel id to join (overrides MINNA_CHANNEL)")
	flags.StringVar(&flagUsername, "username", "", "guest display name (overrides MINNA_USERNAME)")
	flags.StringVar(&flagListen, "listen", "", "local view API address (overrides MINNA_LISTEN)")
	flags.StringVar(&flagLogLevel, "log-level", "", "zerolog level (overrides MINNA_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute client command")
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Channel.ID == "" {
		return fmt.Errorf("a channel id is required (--channel or MINNA_CHANNEL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := transport.New(cfg.ServerURL,
		transport.WithMaxReconnects(cfg.Reconnect.MaxAttempts),
		transport.WithBackoffUnit(cfg.Reconnect.Backoff),
	)

	player := playback.NewHeadlessPlayer()
	ctrl := playback.NewController(player, func(state protocol.PlayerState) {
		if err := state.Validate(); err != nil {
			log.Error().Err(err).Msg("[client] dropping invalid player_state")
			return
		}
		tr.Emit(protocol.EventPlayerState, state)
	},
		playback.WithSuppressWindow(cfg.Playback.SuppressWindow),
		playback.WithSeekDebounce(cfg.Playback.SeekDebounce),
		playback.WithDriftTolerance(cfg.Playback.DriftTolerance),
	)

	sess := session.New(tr, ctrl, cfg.Channel.ID,
		session.WithProxyBase(cfg.ProxyURL),
		session.WithJoinTimeout(cfg.Channel.JoinTimeout),
	)
	sess.Start(ctx)
	if cfg.Channel.GuestUsername != "" {
		if err := sess.SetIdentity(cfg.Channel.GuestUsername); err != nil {
			return err
		}
	}

	catalog, err := api.NewClient(cfg.ProxyURL)
	if err != nil {
		return err
	}

	handler := view.NewHandler(sess, player, catalog, cfg.Search.Provider, cfg.Search.Debounce)
	router := view.NewRouter(handler)

	tr.Connect()
	log.Info().Msgf("[client] channel %s via %s", cfg.Channel.ID, cfg.ServerURL)

	go func() {
		if err := router.Serve(cfg.Listen); err != nil {
			log.Error().Err(err).Msg("[client] view server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := router.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("[client] view server shutdown error")
	}
	handler.Searcher().Close()
	sess.Close()
	ctrl.Close()
	tr.Disconnect()

	log.Info().Msg("[client] shutdown complete")
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagProxyURL != "" {
		cfg.ProxyURL = flagProxyURL
	}
	if flagChannel != "" {
		cfg.Channel.ID = flagChannel
	}
	if flagUsername != "" {
		cfg.Channel.GuestUsername = flagUsername
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
}
