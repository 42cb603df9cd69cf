package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"tutorboard/internal/lesson"
	"tutorboard/pkg/format"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.cfg = model, contents, cfg
	return f.resp, f.err
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: s}}},
	}}}
}

func newTestClient(f *fakeModels) *Client {
	return newClient(f, Options{Logger: zerolog.Nop()})
}

func TestGenerateStepsParsesAndCleans(t *testing.T) {
	f := &fakeModels{resp: textResponse("```json\n" + `[
		{"title":"Isolate x","boardText":"Subtract: $$2x = 4$$","narrationText":"Take three away."},
		{"title":"Divide","boardText":"x = 2","narrationText":"Halve both sides."}
	]` + "\n```")}
	c := newTestClient(f)

	steps := c.GenerateSteps(context.Background(), Question{
		Prompt: "Solve 2x+3=7",
		Image:  &Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
	})
	require.Len(t, steps, 2)
	assert.Equal(t, "$$2x = 4$$", steps[0].BoardText)
	assert.Equal(t, "$$x = 2$$", steps[1].BoardText)
	assert.Equal(t, "Halve both sides.", steps[1].NarrationText)

	assert.Equal(t, DefaultTextModel, f.model)
	require.Len(t, f.contents, 1)
	assert.Len(t, f.contents[0].Parts, 2)
	assert.Equal(t, "application/json", f.cfg.ResponseMIMEType)
	assert.Equal(t, float32(DefaultTemperature), *f.cfg.Temperature)
	assert.Equal(t, []string{"title", "boardText", "narrationText"}, f.cfg.ResponseSchema.Items.Required)
}

func TestGenerateStepsEmptyArray(t *testing.T) {
	c := newTestClient(&fakeModels{resp: textResponse("[]")})
	steps := c.GenerateSteps(context.Background(), Question{Prompt: "hi"})
	assert.Empty(t, steps)
}

func TestGenerateStepsFailuresYieldErrorStep(t *testing.T) {
	cases := map[string]*fakeModels{
		"transport":     {err: errors.New("boom")},
		"no candidates": {resp: &genai.GenerateContentResponse{}},
		"bad json":      {resp: textResponse("{not json")},
		"missing field": {resp: textResponse(`[{"title":"x","boardText":"$$1$$"}]`)},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			steps := newTestClient(f).GenerateSteps(context.Background(), Question{Prompt: "q"})
			require.Len(t, steps, 1)
			assert.Equal(t, lesson.ErrorStep(), steps[0])
			assert.Equal(t, format.ErrorTitle, steps[0].Title)
			assert.Equal(t, format.ErrorMessage, steps[0].BoardText)
			assert.Equal(t, format.ErrorMessage, steps[0].NarrationText)
		})
	}
}

func TestNarrateReturnsBase64(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0xC0}
	f := &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: pcm, MIMEType: "audio/L16;rate=24000"}}}},
	}}}}
	c := newTestClient(f)

	payload, ok := c.Narrate(context.Background(), "two x equals four", "Nobody")
	require.True(t, ok)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pcm), payload)
	assert.Equal(t, DefaultSpeechModel, f.model)
	assert.Equal(t, format.DefaultVoice, f.cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	assert.Equal(t, []string{"AUDIO"}, f.cfg.ResponseModalities)
}

func TestNarrateSwallowsFailures(t *testing.T) {
	_, ok := newTestClient(&fakeModels{err: errors.New("quota")}).Narrate(context.Background(), "hello", "Puck")
	assert.False(t, ok)

	_, ok = newTestClient(&fakeModels{resp: textResponse("no audio")}).Narrate(context.Background(), "hello", "Puck")
	assert.False(t, ok)

	_, ok = newTestClient(&fakeModels{resp: textResponse("x")}).Narrate(context.Background(), "", "Puck")
	assert.False(t, ok)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
