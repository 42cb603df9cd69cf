// Package boardtext normalizes the board text returned by the generator so the
// board only ever shows math-delimited content.
package boardtext

import (
	"regexp"
	"strings"
)

var (
	fenceRe      = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	displayRe    = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	inlineRe     = regexp.MustCompile(`(?s)\\\((.+?)\\\)`)
	mathRe       = regexp.MustCompile(`(?s)\$\$.+?\$\$|\$[^$\n]+\$`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	emphasisRepl = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Segments returns the math segments found in raw, trimmed, with consecutive
// exact duplicates removed.
func Segments(raw string) []string {
	text := normalize(raw)

	var out []string
	for _, m := range mathRe.FindAllString(text, -1) {
		m = trimSegment(m)
		if m == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == m {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Clean extracts math segments and joins them with blank lines. Text with no
// math at all is stripped of markdown markers and wrapped in display math.
// Clean is idempotent.
func Clean(raw string) string {
	segs := Segments(raw)
	if len(segs) > 0 {
		return strings.Join(segs, "\n\n")
	}

	plain := strings.TrimSpace(headingRe.ReplaceAllString(emphasisRepl.Replace(normalize(raw)), ""))
	plain = strings.TrimSpace(strings.ReplaceAll(plain, "$", ""))
	if plain == "" {
		return ""
	}
	return "$$" + plain + "$$"
}

func normalize(raw string) string {
	text := fenceRe.ReplaceAllString(raw, "")
	text = displayRe.ReplaceAllString(text, `$$$$${1}$$$$`)
	text = inlineRe.ReplaceAllString(text, `$$${1}$$`)
	return strings.TrimSpace(text)
}

// trimSegment trims whitespace inside the delimiters so "$$ x $$" and "$$x$$"
// compare equal.
func trimSegment(seg string) string {
	delim := "$"
	if strings.HasPrefix(seg, "$$") && strings.HasSuffix(seg, "$$") && len(seg) >= 4 {
		delim = "$$"
	}
	body := strings.TrimSpace(seg[len(delim) : len(seg)-len(delim)])
	if body == "" {
		return ""
	}
	return delim + body + delim
}
