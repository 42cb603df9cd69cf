/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tutorboard/internal/container"
	"tutorboard/internal/engine"
	"tutorboard/internal/lesson"
	"tutorboard/pkg/audioengine"
	"tutorboard/pkg/format"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlayCommand() *cobra.Command {
	var (
		passphrase string
		silent     bool
	)
	cmd := &cobra.Command{
		Use:   "play <deck>",
		Short: "Replay a saved deck without the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, done, err := setup("")
			if err != nil {
				return err
			}
			defer done()

			f, vol, err := openDeck(args[0], passphrase)
			if err != nil {
				return err
			}
			defer f.Close()

			steps := vol.LessonSteps()
			buffers := make([]*audioengine.Buffer, len(steps))
			for i := range steps {
				pcm, err := vol.StepPCM(i)
				if err != nil {
					if !errors.Is(err, container.ErrNoAudio) {
						log.Warn().Err(err).Int("step", i).Msg("narration unreadable, step plays silent")
					}
					continue
				}
				buffers[i] = audioengine.NewBuffer(audioengine.FloatSamples(pcm), format.SampleRate, format.Channels)
			}

			deps := engine.Deps{Logger: log}
			if !silent {
				deps.Player = openSpeaker(log)
			}
			ecfg := cfg.Engine()
			if vol.Voice != "" {
				ecfg.Voice = vol.Voice
			}
			session := engine.New(ecfg, deps)
			defer session.Close()

			fmt.Printf("\n[Deck] %s  (%d steps, voice %s, %s)\n", vol.Title, len(steps), vol.Voice, vol.CreatedDate)
			fmt.Println("Commands: t toggle, n next, p prev, <number> seek, +/- volume, q quit")
			return runTransport(session, vol.Title, steps, buffers, ecfg.VolumeDB)
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase for a sealed deck (prompted when needed)")
	cmd.Flags().BoolVar(&silent, "silent", false, "do not open the audio device")
	return cmd
}

// openDeck opens and unpacks path, asking for the passphrase when the deck
// is sealed and none was given.
func openDeck(path, passphrase string) (*os.File, *container.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open deck")
	}
	vol, err := container.Unpack(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if vol.Sealed() {
		if passphrase == "" {
			if passphrase, err = askSecret("Deck passphrase"); err != nil {
				f.Close()
				return nil, nil, err
			}
		}
		if err := vol.Unlock(passphrase); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	return f, vol, nil
}

// runTransport loads the deck into session and reads transport commands
// until q or end of input.
func runTransport(session *engine.Session, title string, steps []lesson.Step, buffers []*audioengine.Buffer, volumeDB float64) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "play> ", InterruptPrompt: "^C", EOFPrompt: "q"})
	if err != nil {
		return err
	}
	defer rl.Close()

	snaps, unsub := session.Subscribe()
	defer unsub()
	go func() {
		last, playing := -1, false
		for snap := range snaps {
			cur, ok := snap.Current()
			if !ok {
				continue
			}
			if snap.Index != last {
				last = snap.Index
				fmt.Fprintf(rl.Stdout(), "\n[Step %d/%d] %s\n%s\n", cur.Index+1, len(snap.Steps), cur.Title, cur.BoardText)
			}
			if playing && !snap.Playing && !snap.AwaitingStart && snap.Index == len(snap.Steps)-1 {
				fmt.Fprintln(rl.Stdout(), "[End] Type p to go back or q to quit.")
			}
			playing = snap.Playing
		}
	}()

	session.LoadLesson(title, steps, buffers)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch cmd := strings.TrimSpace(line); cmd {
		case "":
		case "q", "quit":
			return nil
		case "t", "toggle":
			session.Toggle()
		case "n", "next":
			session.Next()
		case "p", "prev":
			session.Prev()
		case "+", "-":
			if cmd == "+" {
				volumeDB += 3
			} else {
				volumeDB -= 3
			}
			session.SetVolume(volumeDB)
			fmt.Fprintf(rl.Stdout(), "[Volume] %+.0f dB\n", volumeDB)
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil || n < 1 || n > len(steps) {
				fmt.Fprintf(rl.Stdout(), " [!] unknown command %q\n", cmd)
				continue
			}
			session.Seek(n - 1)
		}
	}
}
