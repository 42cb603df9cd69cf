/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"tutorboard/internal/config"

	"github.com/chzyer/readline"
)

const (
	version_major = 1
	version_minor = 0
	app_name      = "TB-Client"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default ~/.tutorboard/config.yaml)")
	network := flag.String("network", "", "ipc network (unix or tcp)")
	address := flag.String("address", "", "ipc address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	if *network == "" {
		*network = cfg.IPC.Network
	}
	if *address == "" {
		*address = cfg.IPC.Address
	}

	fmt.Printf("\n%s V.%d.%d\n", app_name, version_major, version_minor)
	conn, err := net.Dial(*network, *address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] connect %s %s: %v\n", *network, *address, err)
		os.Exit(1)
	}
	defer conn.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tb> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "QUIT",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("Connected. Type an IPC command and press Enter.")
	fmt.Println(`Type "QUIT" to exit.`)
	fmt.Println()

	// IPC -> stdout. Printing through rl keeps the prompt intact.
	go func() {
		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for sc.Scan() {
			fmt.Fprintln(rl.Stdout(), sc.Text())
		}
		fmt.Fprintln(rl.Stdout(), "SOCKET CLOSED")
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			fmt.Println("Bye.")
			return
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintf(os.Stderr, "[!] write: %v\n", err)
			os.Exit(1)
		}
	}
}

func historyFile() string {
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "client_history")
}
