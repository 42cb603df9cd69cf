/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	var (
		imagePath  string
		voice      string
		save       string
		passphrase string
		noAudio    bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Generate the steps for one question and print them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, done, err := setup("")
			if err != nil {
				return err
			}
			defer done()
			if voice != "" {
				if !format.IsVoice(voice) {
					return errors.Errorf("unknown voice %q (have %s)", voice, strings.Join(format.Voices, ", "))
				}
				cfg.Voice = voice
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := newGateway(ctx, cfg, log)
			if err != nil {
				return err
			}

			q := gateway.Question{Prompt: strings.Join(args, " ")}
			if imagePath != "" {
				img, err := gateway.LoadImage(imagePath)
				if err != nil {
					return err
				}
				q.Image = img
			}

			deps := engine.Deps{Source: client, Logger: log}
			if !noAudio || save != "" {
				deps.Narrator = client
			}
			session := engine.New(cfg.Engine(), deps)
			defer session.Close()

			snap, err := awaitLesson(ctx, session, q, deps.Narrator != nil)
			if err != nil {
				return err
			}
			printSteps(snap)

			if save != "" {
				if err := session.SaveDeck(save, passphrase); err != nil {
					return err
				}
				fmt.Printf("\n[Success] Deck saved to %s\n", save)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "attach an image to the question")
	cmd.Flags().StringVar(&voice, "voice", "", "narration voice preset")
	cmd.Flags().StringVar(&save, "save", "", "save the lesson as a deck at this path")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "seal the saved deck")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "skip narration (ignored with --save)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "give up after this long")
	return cmd
}

// awaitLesson submits q and blocks until the steps are in and, when narrated,
// every step has settled its audio.
func awaitLesson(ctx context.Context, session *engine.Session, q gateway.Question, narrated bool) (engine.Snapshot, error) {
	snaps, unsub := session.Subscribe()
	defer unsub()

	gen := session.Submit(ctx, q)
	for {
		select {
		case <-ctx.Done():
			return engine.Snapshot{}, errors.Wrap(ctx.Err(), "waiting for lesson")
		case snap, ok := <-snaps:
			if !ok {
				return engine.Snapshot{}, errors.New("session closed")
			}
			if snap.Generation != gen || snap.Phase == "loading" {
				continue
			}
			if !narrated || settled(snap) {
				return snap, nil
			}
		}
	}
}

func settled(snap engine.Snapshot) bool {
	for _, st := range snap.Steps {
		if st.Audio == "pending" {
			return false
		}
	}
	return true
}

func printSteps(snap engine.Snapshot) {
	fmt.Println(strings.Repeat("=", 64))
	fmt.Printf(" %s\n", snap.Question)
	fmt.Println(strings.Repeat("=", 64))
	if len(snap.Steps) == 0 {
		fmt.Println(" (no steps)")
		return
	}
	for _, st := range snap.Steps {
		fmt.Printf("\n[%d] %s", st.Index+1, st.Title)
		if st.Duration > 0 {
			fmt.Printf("  (%s narration)", formatSeconds(st.Duration))
		}
		fmt.Println()
		fmt.Println(strings.Repeat("-", 64))
		fmt.Println(st.BoardText)
		fmt.Printf("\n  > %s\n", st.NarrationText)
	}
}

func formatSeconds(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(100 * time.Millisecond)
	return d.String()
}
