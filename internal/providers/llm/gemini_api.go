package llm

import (
	"context"

	"google.golang.org/genai"
)

// GeminiAPI talks to the public Gemini API with an API key.
type GeminiAPI struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiAPI(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiAPI, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiAPI{client: c, model: modelName, temperature: temperature}, nil
}

// Close is a no-op; the genai client holds no closable resources.
func (g *GeminiAPI) Close() error { return nil }

func (g *GeminiAPI) StreamDescribe(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		mime := req.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromBytes(req.Image, mime),
				genai.NewPartFromText(req.Instruction),
			}, genai.RoleUser),
		}
		cfg := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(g.temperature),
			SafetySettings: []*genai.SafetySetting{
				{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
			},
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				errs <- err
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- text:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return out, errs
}
