package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

// groundedClient issues Google Search grounded calls. The legacy SDK used
// for plain generation has no search tool, so these go through genai.
type groundedClient struct {
	models *genai.Models
}

func newGroundedClient(ctx context.Context, opts Options) (*groundedClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create grounded Gemini client: %w", err)
	}
	return &groundedClient{models: client.Models}, nil
}

func groundedConfig(req Request, opts Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if opts.TopP > 0 {
		cfg.TopP = genai.Ptr(opts.TopP)
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxOutputTokens
	}
	return cfg
}

func (g *groundedClient) generate(ctx context.Context, req Request, opts Options) (*Response, error) {
	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), groundedConfig(req, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to generate grounded content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoContent
	}

	cand := resp.Candidates[0]
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, ErrNoContent
	}

	return &Response{Text: b.String(), Sources: groundingSources(cand)}, nil
}

// groundingSources lists the web pages the answer was grounded on, first
// occurrence of each URI only.
func groundingSources(cand *genai.Candidate) []models.GroundingSource {
	if cand.GroundingMetadata == nil {
		return nil
	}

	var sources []models.GroundingSource
	seen := make(map[string]bool)
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, models.GroundingSource{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}
