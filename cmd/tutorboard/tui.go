/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"path/filepath"

	"tutorboard/internal/config"
	"tutorboard/internal/engine"
	"tutorboard/internal/player"
	"tutorboard/internal/tui"
	"tutorboard/pkg/format"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newTUICommand() *cobra.Command {
	var (
		logFile string
		deckDir string
		silent  bool
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Ask questions and watch the board in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile == "" {
				if dir, err := config.Dir(); err == nil {
					logFile = filepath.Join(dir, "tui.log")
				}
			}
			cfg, log, done, err := setup(logFile)
			if err != nil {
				return err
			}
			defer done()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client, err := newGateway(ctx, cfg, log)
			if err != nil {
				return err
			}

			deps := engine.Deps{Source: client, Narrator: client, Logger: log}
			if !silent {
				deps.Player = openSpeaker(log)
			}
			session := engine.New(cfg.Engine(), deps)
			defer session.Close()

			if deckDir == "" {
				if dir, err := config.Dir(); err == nil {
					deckDir = filepath.Join(dir, "decks")
				}
			}
			m := tui.New(ctx, session, tui.Options{
				TypewriterInterval: cfg.Playback.TypewriterInterval,
				DeckDir:            deckDir,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "log destination (default ~/.tutorboard/tui.log)")
	cmd.Flags().StringVar(&deckDir, "deck-dir", "", "where the s key saves decks (default ~/.tutorboard/decks)")
	cmd.Flags().BoolVar(&silent, "silent", false, "do not open the audio device")
	return cmd
}

// openSpeaker returns nil when no device is available, which leaves the
// session on its silent player.
func openSpeaker(log zerolog.Logger) player.Player {
	spk, err := player.NewSpeaker(format.PlaybackRate)
	if err != nil {
		log.Warn().Err(err).Msg("audio device unavailable, narration is timed but silent")
		return nil
	}
	return spk
}
