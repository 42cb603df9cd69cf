/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tutorboard/internal/config"
	"tutorboard/internal/gateway"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func newReadline() (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt: ">> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItemDynamic(listFiles),
		),
	})
}

func ask(rl *readline.Instance, label, def string) string {
	if def == "" {
		rl.SetPrompt(label + ": ")
	} else {
		rl.SetPrompt(fmt.Sprintf("%s [%s]: ", label, def))
	}
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func askValidFile(rl *readline.Instance, label, def string) string {
	for {
		p := ask(rl, label, def)
		if s, err := os.Stat(p); err == nil && !s.IsDir() {
			return p
		}
		fmt.Println(" [!] Path is not a valid file.")
	}
}

func listFiles(line string) []string {
	dir := filepath.Dir(line)
	if line == "" {
		dir = "."
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if strings.HasPrefix(name, line) {
			names = append(names, name)
		}
	}
	return names
}

// askSecret reads a line without echo.
func askSecret(label string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{})
	if err != nil {
		return "", err
	}
	defer rl.Close()
	b, err := rl.ReadPassword(label + ": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ensureAPIKey prompts for the key when neither the config nor the
// environment supplies one. The key stays in memory.
func ensureAPIKey(cfg *config.Config) error {
	if cfg.API.Key != "" {
		return nil
	}
	key, err := askSecret("Gemini API key")
	if err != nil {
		return errors.Wrap(err, "read API key")
	}
	if key == "" {
		return gateway.ErrNoAPIKey
	}
	cfg.API.Key = key
	return nil
}

func newGateway(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gateway.Client, error) {
	if err := ensureAPIKey(cfg); err != nil {
		return nil, err
	}
	opts := cfg.Gateway()
	opts.Logger = log
	return gateway.New(ctx, opts)
}
