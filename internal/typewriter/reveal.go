// Package typewriter reveals board text a character at a time.
package typewriter

// Identity names the text being revealed. A new identity restarts the reveal,
// the same identity with different text does not.
type Identity struct {
	Gen   string
	Index int
}

type Reveal struct {
	id    Identity
	set   bool
	runes []rune
	shown int
}

// Set points the reveal at text. It reports whether the reveal restarted.
func (r *Reveal) Set(id Identity, text string) bool {
	if r.set && r.id == id {
		r.runes = []rune(text)
		if r.shown > len(r.runes) {
			r.shown = len(r.runes)
		}
		return false
	}
	r.id = id
	r.set = true
	r.runes = []rune(text)
	r.shown = 0
	return true
}

// Tick reveals one more rune and reports whether anything changed.
func (r *Reveal) Tick() bool {
	if r.shown >= len(r.runes) {
		return false
	}
	r.shown++
	return true
}

// ShowAll jumps to the full text.
func (r *Reveal) ShowAll() { r.shown = len(r.runes) }

// Reset hides everything again.
func (r *Reveal) Reset() { r.shown = 0 }

func (r *Reveal) Done() bool { return r.shown >= len(r.runes) }

func (r *Reveal) ID() Identity { return r.id }

// Text returns the revealed prefix.
func (r *Reveal) Text() string { return string(r.runes[:r.shown]) }

// Full returns the whole text regardless of progress.
func (r *Reveal) Full() string { return string(r.runes) }
