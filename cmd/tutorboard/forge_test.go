/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"tutorboard/internal/codec"
	"tutorboard/internal/engine"
	"tutorboard/internal/lesson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, path string, rate int) {
	t.Helper()
	pcm := make([]int16, rate/2)
	for i := range pcm {
		pcm[i] = int16(6000 * math.Sin(2*math.Pi*330*float64(i)/float64(rate)))
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, codec.WriteWAV(f, pcm, rate))
	require.NoError(t, f.Close())
}

func TestForgeBuildsReadableDeck(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "one.wav"), 48000)

	m := Manifest{
		Title: "Fractions",
		Voice: "Puck",
		Steps: []ManifestStep{
			{Step: lesson.Step{Title: "Common denominator", BoardText: "1/2 = 3/6", NarrationText: "Rewrite both."}, WAV: "one.wav"},
			{Step: lesson.Step{Title: "Add", BoardText: "3/6 + 2/6 = 5/6", NarrationText: "Add the tops."}},
		},
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	manifest := filepath.Join(dir, "lesson.json")
	require.NoError(t, os.WriteFile(manifest, raw, 0o644))

	out := filepath.Join(dir, "lesson.tbdeck")
	require.NoError(t, forge(forgeJob{manifest: manifest, output: out, passphrase: "pw", workers: 2}))

	f, vol, err := peekDeck(out, "pw")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Fractions", vol.Title)
	assert.Equal(t, "Puck", vol.Voice)
	require.Len(t, vol.Steps, 2)
	assert.InDelta(t, 0.5, vol.Steps[0].Duration, 0.05)
	assert.Zero(t, vol.Steps[1].Size)

	pcm, err := vol.StepPCM(0)
	require.NoError(t, err)
	assert.NotEmpty(t, pcm)
}

func TestManifestFlattensStepFields(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","steps":[{"title":"a","boardText":"b","narrationText":"c","wav":"x.wav"}]}`), &m))
	require.Len(t, m.Steps, 1)
	assert.Equal(t, lesson.Step{Title: "a", BoardText: "b", NarrationText: "c"}, m.Steps[0].Step)
	assert.Equal(t, "x.wav", m.Steps[0].WAV)
}

func TestForgeRejectsEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`{"title":"T","steps":[]}`), 0o644))
	assert.Error(t, forge(forgeJob{manifest: manifest, output: filepath.Join(dir, "x.tbdeck")}))
}

func TestSettled(t *testing.T) {
	snap := engine.Snapshot{Steps: []engine.StepSnapshot{{Audio: "ready"}, {Audio: "pending"}}}
	assert.False(t, settled(snap))
	snap.Steps[1].Audio = "missing"
	assert.True(t, settled(snap))
}

func TestFormatSizeAndTruncate(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "2.00 Kb", formatSize(2048))
	assert.Equal(t, "3.00 Mb", formatSize(3*1024*1024))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
