/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"strings"
	"sync"
)

type Progress struct {
	label   string
	total   int
	current int
	mu      sync.Mutex
}

func NewProgress(label string, total int) *Progress {
	return &Progress{label: label, total: total}
}

func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.draw()
}

func (p *Progress) draw() {
	width := 30
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total)
	}
	filled := int(float64(width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Printf("\r [%s] [%s] %d%% (%d/%d steps)", p.label, bar, int(percent*100), p.current, p.total)

	if p.current == p.total {
		fmt.Println()
	}
}
