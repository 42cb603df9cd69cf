package boardtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanExtractsMathSegments(t *testing.T) {
	raw := "First we write the equation: $$x^2 + 2x + 1 = 0$$ and then factor it as $(x+1)^2 = 0$."
	assert.Equal(t, "$$x^2 + 2x + 1 = 0$$\n\n$(x+1)^2 = 0$", Clean(raw))
}

func TestCleanDropsConsecutiveDuplicates(t *testing.T) {
	raw := "$$a+b$$\n$$a+b$$\n$$ a+b $$\n$$c$$\n$$a+b$$"
	assert.Equal(t, []string{"$$a+b$$", "$$c$$", "$$a+b$$"}, Segments(raw))
}

func TestCleanNormalizesBracketDelimiters(t *testing.T) {
	raw := `\[ \frac{1}{2} \] and \( y \)`
	assert.Equal(t, "$$\\frac{1}{2}$$\n\n$y$", Clean(raw))
}

func TestCleanWrapsTextWithoutMath(t *testing.T) {
	assert.Equal(t, "$$Area equals length times width$$", Clean("## **Area** equals length times width"))
	assert.Equal(t, "", Clean("   "))
}

func TestCleanStripsCodeFences(t *testing.T) {
	raw := "```latex\n$$E = mc^2$$\n```"
	assert.Equal(t, "$$E = mc^2$$", Clean(raw))
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"$$x = 1$$",
		"$$x = 1$$\n\n$y$",
		"Solve $2x = 4$ so $x = 2$",
		"no math here, just words",
		"a $$ b",
		"```\n\\[ a^2 + b^2 = c^2 \\]\n```",
		"$$multi\nline$$",
	}
	for _, in := range inputs {
		once := Clean(in)
		require.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestCleanLeavesCleanTextUnchanged(t *testing.T) {
	clean := "$$\\int_0^1 x\\,dx = \\tfrac{1}{2}$$\n\n$x$"
	assert.Equal(t, clean, Clean(clean))
}
