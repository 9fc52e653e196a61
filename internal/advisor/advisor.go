// Package advisor issues the per-stage prompts of the ideation wizard and
// turns the model's replies into typed results.
package advisor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/extract"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/gemini"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

// Stage failures. Each wraps the underlying call, parse or schema error.
var (
	ErrMarketAnalysis  = errors.New("market analysis failed")
	ErrInDepthAnalysis = errors.New("in-depth analysis failed")
	ErrProductRecs     = errors.New("product recommendations failed")
	ErrMvpGuide        = errors.New("mvp guide failed")
	ErrPromoStrategy   = errors.New("promotion strategy failed")
)

// Generator is the text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (*gemini.Response, error)
}

type Config struct {
	FastModel    string
	DeepModel    string
	Language     string
	Instructions Instructions
}

type Advisor struct {
	gen    Generator
	cfg    Config
	money  *locale.Formatter
	logger *logrus.Entry
}

func New(gen Generator, cfg Config, money *locale.Formatter, logger *logrus.Logger) *Advisor {
	return &Advisor{
		gen:    gen,
		cfg:    cfg,
		money:  money,
		logger: logger.WithField("system", "advisor"),
	}
}

type marketAnswer struct {
	Summary     string              `json:"summary" jsonschema:"minLength=1"`
	MarketNeeds []models.MarketNeed `json:"market_needs" jsonschema:"minItems=1"`
}

var (
	marketSchema  = extract.MustSchema[marketAnswer]()
	productSchema = extract.MustSchema[models.ProductRecommendations]()
	mvpSchema     = extract.MustSchema[models.MvpGuide]()
	promoSchema   = extract.MustSchema[models.PromoStrategy]()
)

// AnalyzeMarket runs the search-grounded market analysis for the inputs.
// Needs are returned highest score first.
func (a *Advisor) AnalyzeMarket(ctx context.Context, in models.MarketInputs) (*models.MarketAnalysis, error) {
	resp, err := a.generate(ctx, "market_analysis", gemini.Request{
		Prompt:      a.marketPrompt(in),
		Model:       a.cfg.FastModel,
		Temperature: 0.5,
		Search:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarketAnalysis, err)
	}

	answer, err := marketSchema.Parse(resp.Text)
	if err != nil {
		a.logParseFailure("market_analysis", resp.Text, err)
		return nil, fmt.Errorf("%w: %w", ErrMarketAnalysis, err)
	}

	slices.SortStableFunc(answer.MarketNeeds, func(x, y models.MarketNeed) int {
		return cmp.Compare(y.Score, x.Score)
	})

	return &models.MarketAnalysis{
		Summary:     answer.Summary,
		MarketNeeds: answer.MarketNeeds,
		Sources:     resp.Sources,
	}, nil
}

// InDepthAnalysis returns a markdown deep dive into one market need.
func (a *Advisor) InDepthAnalysis(ctx context.Context, need models.MarketNeed, audience string, capital int64) (*models.InDepthAnalysis, error) {
	resp, err := a.generate(ctx, "in_depth_analysis", gemini.Request{
		Prompt:      a.inDepthPrompt(need, audience, capital),
		Model:       a.cfg.DeepModel,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInDepthAnalysis, err)
	}

	content := strings.TrimSpace(resp.Text)
	if content == "" {
		return nil, fmt.Errorf("%w: %w", ErrInDepthAnalysis, gemini.ErrNoContent)
	}
	return &models.InDepthAnalysis{Content: content}, nil
}

// RecommendProducts derives scored product ideas from an in-depth analysis.
// Products are returned highest score first.
func (a *Advisor) RecommendProducts(ctx context.Context, analysis string) ([]models.ProductRecommendation, error) {
	resp, err := a.generate(ctx, "product_recs", gemini.Request{
		Prompt:      a.productPrompt(analysis),
		Model:       a.cfg.DeepModel,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProductRecs, err)
	}

	recs, err := productSchema.Parse(resp.Text)
	if err != nil {
		a.logParseFailure("product_recs", resp.Text, err)
		return nil, fmt.Errorf("%w: %w", ErrProductRecs, err)
	}

	slices.SortStableFunc(recs.Products, func(x, y models.ProductRecommendation) int {
		return cmp.Compare(y.Score, x.Score)
	})
	return recs.Products, nil
}

// BuildMvpGuide plans the minimum viable product for the chosen product.
func (a *Advisor) BuildMvpGuide(ctx context.Context, product string, audience string, capital int64) (*models.MvpGuide, error) {
	resp, err := a.generate(ctx, "mvp_guide", gemini.Request{
		Prompt:      a.mvpPrompt(product, audience, capital),
		Model:       a.cfg.DeepModel,
		Temperature: 0.6,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMvpGuide, err)
	}

	guide, err := mvpSchema.Parse(resp.Text)
	if err != nil {
		a.logParseFailure("mvp_guide", resp.Text, err)
		return nil, fmt.Errorf("%w: %w", ErrMvpGuide, err)
	}
	return &guide, nil
}

// PlanPromotion builds a promotion plan for the product over [start, end].
func (a *Advisor) PlanPromotion(ctx context.Context, product string, audience string, start, end time.Time) (*models.PromoStrategy, error) {
	resp, err := a.generate(ctx, "promo_strategy", gemini.Request{
		Prompt:      a.promoPrompt(product, audience, start, end),
		Model:       a.cfg.DeepModel,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPromoStrategy, err)
	}

	strategy, err := promoSchema.Parse(resp.Text)
	if err != nil {
		a.logParseFailure("promo_strategy", resp.Text, err)
		return nil, fmt.Errorf("%w: %w", ErrPromoStrategy, err)
	}
	return &strategy, nil
}

func (a *Advisor) generate(ctx context.Context, stage string, req gemini.Request) (*gemini.Response, error) {
	start := time.Now()
	resp, err := a.gen.Generate(ctx, req)
	log := a.logger.WithFields(logrus.Fields{
		"stage":    stage,
		"model":    req.Model,
		"duration": time.Since(start),
	})
	if err != nil {
		log.WithError(err).Error("generation failed")
		return nil, err
	}
	log.Info("generation complete")
	return resp, nil
}

func (a *Advisor) logParseFailure(stage, text string, err error) {
	a.logger.WithFields(logrus.Fields{
		"stage":    stage,
		"response": text,
	}).WithError(err).Error("failed to parse response")
}
