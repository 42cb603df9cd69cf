package format

import "time"

const (
	// === IDENTITY & VERSIONING ===
	Version = "1.0.0"

	// === MAGIC NUMBERS ===
	DeckMagic = "TBDECK01"

	// === NARRATION AUDIO (as delivered by the speech model) ===
	SampleRate     = 24000
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8
	FrameSize      = 20 // ms per Opus frame
	PlaybackRate   = 48000

	// === SECURITY ===
	SaltLen    = 16
	SignPhrase = "tutorboard-deck"

	// === TLV TAGS ===
	Title       = "TITL"
	Voice       = "VOIC"
	CreatedDate = "CRDT"
	Salt        = "SALT"
	Signature   = "SIGN"
	AudioData   = "AUDI"
	TableOfCont = "TTOC"
)

// Playback timing defaults.
const (
	AdvancePause       = 1500 * time.Millisecond
	FallbackTimeout    = 3500 * time.Millisecond
	TypewriterInterval = 30 * time.Millisecond
)

// Synthetic step shown when generation fails.
const (
	ErrorTitle   = "Error"
	ErrorMessage = "Sorry, I couldn't put together an explanation for that. Please try asking again."
)

// Voice presets accepted by the narration model.
const DefaultVoice = "Kore"

var Voices = []string{"Kore", "Puck", "Charon", "Fenrir", "Zephyr"}

// IsVoice reports whether name is one of the supported presets.
func IsVoice(name string) bool {
	for _, v := range Voices {
		if v == name {
			return true
		}
	}
	return false
}

// VoiceOrDefault maps unknown or empty names to DefaultVoice.
func VoiceOrDefault(name string) string {
	if IsVoice(name) {
		return name
	}
	return DefaultVoice
}
