// Package gemini wraps the Gemini text-generation API behind a single
// request/response call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

var (
	// ErrNoCredential is returned by every call when no API key was configured.
	ErrNoCredential = errors.New("gemini api key not configured")
	// ErrNoContent is returned when the model produced no text.
	ErrNoContent = errors.New("no content generated")
)

// Request is one prompt plus its generation parameters.
type Request struct {
	Prompt      string
	Model       string
	Temperature float32
	// Search grounds the answer in Google Search results and returns the
	// pages it drew on.
	Search bool
}

// Response is the generated text and any grounding sources attached to it.
type Response struct {
	Text    string
	Sources []models.GroundingSource
}

type Options struct {
	APIKey          string
	TopP            float32
	MaxOutputTokens int32
	// BaseURL overrides the endpoint used for search grounded calls.
	BaseURL         string
}

type GeminiClient struct {
	client   *genai.Client
	grounded *groundedClient
	opts     Options
	logger   *logrus.Entry
}

func NewGeminiClient(ctx context.Context, opts Options, logger *logrus.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	grounded, err := newGroundedClient(ctx, opts)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &GeminiClient{
		client:   client,
		grounded: grounded,
		opts:     opts,
		logger:   logger.WithField("system", "gemini"),
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Search {
		start := time.Now()
		out, err := g.grounded.generate(ctx, req, g.opts)
		if err != nil {
			return nil, err
		}
		g.logger.WithFields(logrus.Fields{
			"model":    req.Model,
			"duration": time.Since(start),
			"sources":  len(out.Sources),
		}).Debug("grounded content generated")
		return out, nil
	}

	model := g.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if g.opts.TopP > 0 {
		model.SetTopP(g.opts.TopP)
	}
	if g.opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(g.opts.MaxOutputTokens)
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"duration": time.Since(start),
	}).Debug("content generated")

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}

	text := candidateText(resp.Candidates[0])
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	return &Response{Text: text}, nil
}

func candidateText(cand *genai.Candidate) string {
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Unavailable stands in for the client when no credential is configured.
// Every call short-circuits to ErrNoCredential.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrNoCredential
}

func (Unavailable) Close() error { return nil }
