package gateway

import (
	"context"
	"encoding/base64"
	"time"

	"tutorboard/internal/metrics"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// Narrate synthesizes speech for text. The payload is base64 of 24 kHz mono
// 16-bit little-endian PCM. Failures are logged and reported as ok == false.
func (c *Client) Narrate(ctx context.Context, text, voice string) (string, bool) {
	voice = format.VoiceOrDefault(voice)
	start := c.now()
	payload, err := c.narrate(ctx, text, voice)
	metrics.NarrationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			metrics.Narrations.WithLabelValues(metrics.Aborted).Inc()
			return "", false
		}
		metrics.Narrations.WithLabelValues(metrics.Failed).Inc()
		c.log.Warn().Err(err).Str("voice", voice).Msg("narration failed")
		return "", false
	}
	metrics.Narrations.WithLabelValues(metrics.OK).Inc()
	return payload, true
}

func (c *Client) narrate(ctx context.Context, text, voice string) (string, error) {
	if text == "" {
		return "", errors.New("empty narration text")
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, c.speechModel, contents, cfg)
	if err != nil {
		return "", errors.Wrap(err, "generate speech")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no speech candidate")
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return base64.StdEncoding.EncodeToString(p.InlineData.Data), nil
		}
	}
	return "", errors.New("response carried no audio")
}
