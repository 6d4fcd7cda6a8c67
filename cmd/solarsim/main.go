package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/solarsim/solarsim/pkg/calculator"
	"github.com/solarsim/solarsim/pkg/catalog"
	"github.com/solarsim/solarsim/pkg/generator"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/playback"
	"github.com/solarsim/solarsim/pkg/server"
	"github.com/solarsim/solarsim/pkg/session"
	"github.com/solarsim/solarsim/pkg/storage"
	"github.com/solarsim/solarsim/pkg/telemetry"
)

func main() {
	// init packages
	cat := catalog.Configured()
	gen := generator.Configured(cat)
	settings := session.ConfiguredSettings()
	calc := calculator.Configured()
	pub := telemetry.Configured()
	s := storage.Configured()

	// init server
	srv := server.Configured(cat, calc, s)

	// parse flags
	lflag.Configure()

	configureLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()
	defer func() {
		if err := pub.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close telemetry publisher", "error", err)
		}
	}()

	sess, err := session.New(ctx, gen, playback.New(), *settings, session.WithPublisher(pub))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to start session", "error", err)
		os.Exit(1)
	}
	defer sess.Close()
	srv.SetSession(sess)

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

func configureLogging() {
	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	log.SetDefaultLogLevel(level)
	log.SetDefaultOutput(os.Stdout)
	slog.Debug("logger configured", slog.String("level", level.String()))
}
