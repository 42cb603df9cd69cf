package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"tutorboard/internal/boardtext"
	"tutorboard/internal/lesson"
	"tutorboard/internal/metrics"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const systemInstruction = `You are a patient math and science tutor writing on a whiteboard.
Break the learner's question into 3 to 6 short steps.
For every step give:
- title: a few words naming the step;
- boardText: only what is written on the board, as LaTeX wrapped in $$ ... $$ (one expression per line, no prose);
- narrationText: what you say out loud while writing, in plain spoken English without LaTeX.
If an image is attached, read the problem from it.`

var stepSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":         {Type: genai.TypeString},
			"boardText":     {Type: genai.TypeString},
			"narrationText": {Type: genai.TypeString},
		},
		Required:         []string{"title", "boardText", "narrationText"},
		PropertyOrdering: []string{"title", "boardText", "narrationText"},
	},
}

// GenerateSteps asks the text model for a lesson. It never fails: any error
// collapses into a single lesson.ErrorStep. An empty array yields no steps.
func (c *Client) GenerateSteps(ctx context.Context, q Question) []lesson.Step {
	start := c.now()
	steps, err := c.generate(ctx, q)
	metrics.GenerationLatency.Observe(time.Since(start).Seconds())

	switch {
	case err != nil && ctx.Err() != nil:
		metrics.Generations.WithLabelValues(metrics.Aborted).Inc()
		c.log.Debug().Err(err).Msg("generation canceled")
		return []lesson.Step{lesson.ErrorStep()}
	case err != nil:
		metrics.Generations.WithLabelValues(metrics.Failed).Inc()
		c.log.Error().Err(err).Str("model", c.textModel).Msg("generation failed")
		return []lesson.Step{lesson.ErrorStep()}
	case len(steps) == 0:
		metrics.Generations.WithLabelValues(metrics.Empty).Inc()
	default:
		metrics.Generations.WithLabelValues(metrics.OK).Inc()
	}
	c.log.Info().Int("steps", len(steps)).Dur("took", time.Since(start)).Msg("lesson generated")
	return steps
}

func (c *Client) generate(ctx context.Context, q Question) ([]lesson.Step, error) {
	parts := []*genai.Part{genai.NewPartFromText(q.Prompt)}
	if q.Image != nil && len(q.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(q.Image.Data, q.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    stepSchema,
	}

	resp, err := c.models.GenerateContent(ctx, c.textModel, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "generate content")
	}
	return ParseSteps(firstText(resp))
}

// ParseSteps decodes the model's JSON array and cleans every board text.
// Missing required fields are an error.
func ParseSteps(raw string) ([]lesson.Step, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}

	var items []map[string]*string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, errors.Wrap(err, "decode steps")
	}

	steps := make([]lesson.Step, 0, len(items))
	for i, it := range items {
		title, board, narration := it["title"], it["boardText"], it["narrationText"]
		if title == nil || board == nil || narration == nil {
			return nil, errors.Errorf("step %d: missing required field", i)
		}
		steps = append(steps, lesson.Step{
			Title:         *title,
			BoardText:     boardtext.Clean(*board),
			NarrationText: *narration,
		})
	}
	return steps, nil
}
