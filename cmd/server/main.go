package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kiliankoe/impostor/internal/config"
	"github.com/kiliankoe/impostor/internal/game"
	"github.com/kiliankoe/impostor/internal/httpapi"
	"github.com/kiliankoe/impostor/internal/telegram"
	"github.com/kiliankoe/impostor/internal/ws"
)

const version = "v0.3.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Impostor - find the player who doesn't know the secret word

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  TELEGRAM_TOKEN          Bot API token (required)
  TELEGRAM_MODE           "polling" or "webhook" (default: polling)
  WEBHOOK_BASE_URL        Public base URL, required in webhook mode
  WEBHOOK_SECRET          Secret token Telegram sends with each webhook call
  POLL_TIMEOUT            Long polling timeout (default: 30s)
  DURATION_VOTE_WINDOW    How long the duration poll stays open (default: 60s)
  ACCUSATION_VOTE_WINDOW  How long the accusation poll stays open (default: 60s)
  RESET_GRACE             Pause between results and the next game (default: 5s)
  ALLOWED_DURATIONS       Discussion lengths in minutes (default: 5,7,10)
  WORDS_FILE              YAML file with the secret word pool (optional)
  LOG_LEVEL               debug, info, warn or error (default: info)
  LOG_FORMAT              console or json (default: console)
  SPECTATOR_ENABLED       Serve the Socket.IO spectator feed (default: true)
  CORS_ORIGINS            Allowed origins for the HTTP API (default: *)

Examples:
  %s                  Start with long polling
  %s --port 3000      Serve the HTTP API on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Impostor %s\n", version)
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat != "json" {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = log.Output(cw)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(cfg config.Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	words := game.DefaultWords
	if cfg.WordsFile != "" {
		w, err := game.LoadWords(cfg.WordsFile)
		if err != nil {
			return err
		}
		words = w
		log.Info().Int("words", len(words)).Str("file", cfg.WordsFile).Msg("loaded word pool")
	}
	durations := make([]game.Minutes, 0, len(cfg.AllowedDurations))
	for _, d := range cfg.AllowedDurations {
		durations = append(durations, game.Minutes(d))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := telegram.NewClient(cfg.TelegramToken, "")
	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	me, err := client.GetMe(meCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	log.Info().Str("bot", me.Username).Msg("authenticated")

	roster := telegram.NewRoster()
	adapter := telegram.NewAdapter(client, roster)
	orch := game.NewOrchestrator(adapter, adapter, adapter, game.Options{
		SelfID:               fmt.Sprint(me.ID),
		Durations:            durations,
		Words:                words,
		DurationVoteWindow:   cfg.DurationVoteWindow,
		AccusationVoteWindow: cfg.AccusationVoteWindow,
		ResetGrace:           cfg.ResetGrace,
	})
	defer orch.Shutdown()

	handler := telegram.NewUpdateHandler(client, roster, orch, me.Username)

	gin.SetMode(gin.ReleaseMode)
	deps := httpapi.Deps{Games: orch, CORSOrigins: cfg.CORSOrigins}
	if cfg.TelegramMode == "webhook" {
		deps.Webhook = telegram.WebhookHandler(handler, cfg.WebhookSecret)
	}
	var spectators *ws.Server
	if cfg.SpectatorEnabled {
		spectators = ws.New(orch)
		deps.Spectators = spectators
	}
	r := httpapi.NewRouter(deps)
	if spectators != nil {
		io := spectators.Mount(r)
		defer io.Close()
		orch.AddObserver(spectators)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	switch cfg.TelegramMode {
	case "webhook":
		url := strings.TrimRight(cfg.WebhookBaseURL, "/") + httpapi.WebhookPath
		if err := telegram.RegisterWebhook(gctx, client, url, cfg.WebhookSecret); err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("setWebhook: %w", err)
		}
	default:
		poller := telegram.NewPoller(client, handler, cfg.PollTimeout)
		g.Go(func() error { return poller.Run(gctx) })
	}

	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}
