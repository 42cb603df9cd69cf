/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"tutorboard/internal/codec"
	"tutorboard/internal/container"
	"tutorboard/internal/lesson"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Manifest describes a hand-authored lesson. WAV paths are relative to the
// manifest file.
type Manifest struct {
	Title string         `json:"title"`
	Voice string         `json:"voice"`
	Steps []ManifestStep `json:"steps"`
}

type ManifestStep struct {
	lesson.Step
	WAV string `json:"wav,omitempty"`
}

type forgeJob struct {
	manifest   string
	output     string
	passphrase string
	workers    int
}

func newForgeCommand() *cobra.Command {
	var job forgeJob
	cmd := &cobra.Command{
		Use:   "forge",
		Short: "Build a deck from a lesson manifest and WAV narration",
		Long: `Builds a deck from a JSON manifest:

  {"title": "...", "voice": "Kore",
   "steps": [{"title": "...", "boardText": "...", "narrationText": "...", "wav": "step1.wav"}]}

Without --manifest the command asks for each setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if job.manifest == "" {
				var err error
				if job, err = interview(job); err != nil {
					return err
				}
			}
			if job.output == "" {
				job.output = strings.TrimSuffix(job.manifest, filepath.Ext(job.manifest)) + ".tbdeck"
			}
			return forge(job)
		},
	}
	cmd.Flags().StringVar(&job.manifest, "manifest", "", "lesson manifest (JSON)")
	cmd.Flags().StringVarP(&job.output, "output", "o", "", "deck path (default: manifest name with .tbdeck)")
	cmd.Flags().StringVar(&job.passphrase, "passphrase", "", "seal the narration with this passphrase")
	cmd.Flags().IntVar(&job.workers, "workers", 2, "WAV files decoded at once")
	return cmd
}

func interview(def forgeJob) (forgeJob, error) {
	rl, err := newReadline()
	if err != nil {
		return def, err
	}
	defer rl.Close()

	for {
		fmt.Println("\n=== TUTORBOARD FORGE: INTERACTIVE MODE ===")
		fmt.Println("(Tip: Use TAB to autocomplete paths)")
		job := def
		job.manifest = askValidFile(rl, "1. Lesson manifest", "")
		job.output = ask(rl, "2. Deck output", strings.TrimSuffix(job.manifest, filepath.Ext(job.manifest))+".tbdeck")
		maxCPU := runtime.NumCPU()
		w, _ := strconv.Atoi(ask(rl, "3. Worker count (1-"+strconv.Itoa(maxCPU)+")", strconv.Itoa(def.workers)))
		job.workers = w
		seal := ask(rl, "4. Seal narration with a passphrase? (y/n)", "n")
		if seal == "y" {
			pass, err := rl.ReadPassword("   Passphrase: ")
			if err != nil {
				return def, err
			}
			job.passphrase = string(pass)
		}

		fmt.Println("\n--- REVIEW SELECTIONS ---")
		fmt.Printf(" [Manifest] : %s\n [Output]   : %s\n [Workers]  : %d\n [Sealed]   : %v\n", job.manifest, job.output, job.workers, job.passphrase != "")
		fmt.Println("--------------------------")

		switch ask(rl, "Proceed? (y) Yes / (r) Restart / (q) Quit", "y") {
		case "y":
			return job, nil
		case "q":
			return def, errors.New("aborted")
		}
	}
}

func forge(job forgeJob) error {
	raw, err := os.ReadFile(job.manifest)
	if err != nil {
		return errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.Wrap(err, "parse manifest")
	}
	if len(m.Steps) == 0 {
		return errors.New("manifest has no steps")
	}
	if job.workers < 1 {
		job.workers = 1
	}

	deck := &container.Deck{
		Title:   m.Title,
		Voice:   format.VoiceOrDefault(m.Voice),
		Created: time.Now(),
		Steps:   make([]container.DeckStep, len(m.Steps)),
	}
	base := filepath.Dir(job.manifest)
	prog := NewProgress("FORGING", len(m.Steps))

	var g errgroup.Group
	g.SetLimit(job.workers)
	for i, st := range m.Steps {
		deck.Steps[i].Step = st.Step
		g.Go(func() error {
			defer prog.Add(1)
			if st.WAV == "" {
				return nil
			}
			path := st.WAV
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}
			pcm, err := loadNarration(path)
			if err != nil {
				return errors.Wrapf(err, "step %d", i+1)
			}
			deck.Steps[i].PCM = pcm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Println()
		return err
	}

	f, err := os.Create(job.output)
	if err != nil {
		return errors.Wrap(err, "create deck")
	}
	if err := container.Pack(f, deck, job.passphrase); err != nil {
		f.Close()
		os.Remove(job.output)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close deck")
	}
	fmt.Printf("\n[Success] Deck created: %s\n", job.output)
	return nil
}

// loadNarration reads a WAV file as mono PCM at the narration rate.
func loadNarration(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open wav")
	}
	defer f.Close()
	pcm, rate, err := codec.ReadWAV(f)
	if err != nil {
		return nil, err
	}
	return codec.NormalizePCM(codec.Resample(pcm, rate, format.SampleRate)), nil
}
