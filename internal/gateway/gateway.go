// Package gateway talks to the Gemini API: one call turns a question into
// board steps, another turns narration text into speech.
package gateway

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultTemperature = 0.2
)

var ErrNoAPIKey = errors.New("no API key configured")

// Image is an optional attachment sent inline with the prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Question is what the learner asked.
type Question struct {
	Prompt string
	Image  *Image
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey      string
	TextModel   string
	SpeechModel string
	Temperature float32
	Logger      zerolog.Logger
}

// Client is created once by its owner and shared by every submission.
type Client struct {
	models      contentGenerator
	textModel   string
	speechModel string
	temperature float32
	log         zerolog.Logger
	now         func() time.Time
}

// New connects to the Gemini API backend.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return newClient(gc.Models, opts), nil
}

func newClient(models contentGenerator, opts Options) *Client {
	c := &Client{
		models:      models,
		textModel:   opts.TextModel,
		speechModel: opts.SpeechModel,
		temperature: opts.Temperature,
		log:         opts.Logger.With().Str("component", "gateway").Logger(),
		now:         time.Now,
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.speechModel == "" {
		c.speechModel = DefaultSpeechModel
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	return c
}

// firstText joins the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			out += p.Text
		}
	}
	return out
}
