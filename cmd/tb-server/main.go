/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorboard/internal/config"
	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/internal/ipc"
	"tutorboard/internal/logging"
	"tutorboard/internal/player"
	"tutorboard/internal/web"
	"tutorboard/pkg/format"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	version_major = 1
	version_minor = 0
	server_name   = "TB-Server"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default ~/.tutorboard/config.yaml)")
	silent := flag.Bool("silent", false, "do not open the audio device")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}

	log, closer, err := logging.Setup(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}, "tb-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	log.Info().Msgf("%s V.%d.%d", server_name, version_major, version_minor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *silent); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, silent bool) error {
	opts := cfg.Gateway()
	opts.Logger = log
	client, err := gateway.New(ctx, opts)
	if err != nil {
		return err
	}

	deps := engine.Deps{
		Source:   client,
		Narrator: client,
		Logger:   log,
	}
	if !silent {
		spk, err := player.NewSpeaker(format.PlaybackRate)
		if err != nil {
			log.Warn().Err(err).Msg("audio device unavailable, narration is timed but silent")
		} else {
			deps.Player = spk
		}
	}

	session := engine.New(cfg.Engine(), deps)
	defer session.Close()

	ln, err := ipc.Listen(cfg.IPC.Network, cfg.IPC.Address)
	if err != nil {
		return err
	}

	ws := web.New(ctx, session, log)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.New(session, server_name, log).Serve(gctx, ln)
	})
	g.Go(func() error {
		ws.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		log.Info().Msg("bye")
		return nil
	}
	return err
}
