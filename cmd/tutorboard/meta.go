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
	"strings"
	"sync"

	"tutorboard/internal/codec"
	"tutorboard/internal/container"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const waveformWidth = 24

func newMetaCommand() *cobra.Command {
	var (
		passphrase string
		jsonDump   bool
		wavDir     string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "meta <deck>",
		Short: "Show a deck's table of contents, optionally exporting WAV narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var (
				f   *os.File
				vol *container.Volume
				err error
			)
			// Only ask for the passphrase when the audio is actually needed.
			if wavDir != "" {
				f, vol, err = openDeck(path, passphrase)
			} else {
				f, vol, err = peekDeck(path, passphrase)
			}
			if err != nil {
				return err
			}
			defer f.Close()

			if jsonDump {
				out, err := json.MarshalIndent(vol.Steps, "", "  ")
				if err != nil {
					return errors.Wrap(err, "encode toc")
				}
				fmt.Println(string(out))
				fmt.Println("=== [END DUMP] ===")
				return nil
			}

			var size int64
			if st, err := f.Stat(); err == nil {
				size = st.Size()
			}
			printDeck(vol, size)

			if wavDir != "" {
				return exportWAVs(vol, wavDir, workers)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase for a sealed deck")
	cmd.Flags().BoolVar(&jsonDump, "jsondump", false, "print the raw table of contents")
	cmd.Flags().StringVar(&wavDir, "wav-dir", "", "export each step's narration as WAV into this directory")
	cmd.Flags().IntVar(&workers, "workers", 2, "steps exported at once")
	return cmd
}

// peekDeck opens a deck for its table of contents. A sealed deck stays
// locked unless a passphrase was given.
func peekDeck(path, passphrase string) (*os.File, *container.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open deck")
	}
	vol, err := container.Unpack(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if vol.Sealed() && passphrase != "" {
		if err := vol.Unlock(passphrase); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	return f, vol, nil
}

func printDeck(vol *container.Volume, size int64) {
	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf(" TITLE         : %s\n", vol.Title)
	fmt.Printf(" VOICE         : %s\n", vol.Voice)
	fmt.Printf(" CREATED DATE  : %s\n", vol.CreatedDate)
	fmt.Printf(" SEALED        : %v\n", vol.Sealed())
	fmt.Printf(" FILE SIZE     : %s\n", formatSize(size))
	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf(" %-3s | %-30s | %-8s | %-9s | %s\n", "NO", "STEP TITLE", "DURATION", "SIZE", "WAVEFORM")
	fmt.Println(strings.Repeat("-", 90))
	for i, e := range vol.Steps {
		wave := "-"
		if pcm, err := vol.StepPCM(i); err == nil {
			wave = codec.Sparkline(codec.WaveformLevels(pcm, waveformWidth))
		} else if errors.Is(err, container.ErrLocked) {
			wave = "(sealed)"
		}
		mins := int(e.Duration) / 60
		secs := int(e.Duration) % 60
		fmt.Printf(" %2d  | %-30s | %02d:%02d    | %-9s | %s\n",
			i+1, truncate(e.Title, 30), mins, secs, formatSize(int64(e.Size)), wave)
	}
	fmt.Println(strings.Repeat("=", 90))
}

func exportWAVs(vol *container.Volume, dir string, workers int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create wav directory")
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(vol.Steps))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	prog := NewProgress("EXPORT", len(vol.Steps))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				err := exportStep(vol, dir, i)
				prog.Add(1)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	for i := range vol.Steps {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	fmt.Println("\n[Success] Narration exported to", dir)
	return nil
}

func exportStep(vol *container.Volume, dir string, i int) error {
	pcm, err := vol.StepPCM(i)
	if errors.Is(err, container.ErrNoAudio) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "step %d", i+1)
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("step-%02d.wav", i+1)))
	if err != nil {
		return errors.Wrap(err, "create wav")
	}
	if err := codec.WriteWAV(f, pcm, format.SampleRate); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close wav")
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	if exp == 0 {
		return fmt.Sprintf("%.2f Kb", float64(b)/float64(unit))
	}
	return fmt.Sprintf("%.2f Mb", float64(b)/float64(div))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
