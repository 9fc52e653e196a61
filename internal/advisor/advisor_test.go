package advisor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/extract"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/gemini"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

type fakeGenerator struct {
	text     string
	sources  []models.GroundingSource
	err      error
	requests []gemini.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req gemini.Request) (*gemini.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &gemini.Response{Text: f.text, Sources: f.sources}, nil
}

func newTestAdvisor(gen Generator) *Advisor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(gen, Config{
		FastModel:    "fast-model",
		DeepModel:    "deep-model",
		Language:     "English",
		Instructions: DefaultInstructions(),
	}, locale.New("id"), logger)
}

func TestAnalyzeMarket(t *testing.T) {
	gen := &fakeGenerator{
		text: "Here is the analysis:\n```json\n" +
			`{"summary":"Growing demand","market_needs":[` +
			`{"need":"Cheap meals","description":"d1","score":70},` +
			`{"need":"Healthy snacks","description":"d2","score":92}]}` +
			"\n```",
		sources: []models.GroundingSource{{URI: "https://example.com/report"}},
	}
	a := newTestAdvisor(gen)

	got, err := a.AnalyzeMarket(context.Background(), models.MarketInputs{
		Location: "Jakarta",
		Capital:  10000000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Growing demand", got.Summary)
	require.Len(t, got.MarketNeeds, 2)
	assert.Equal(t, "Healthy snacks", got.MarketNeeds[0].Need)
	assert.Equal(t, "Cheap meals", got.MarketNeeds[1].Need)
	assert.Equal(t, gen.sources, got.Sources)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "fast-model", req.Model)
	assert.Equal(t, float32(0.5), req.Temperature)
	assert.True(t, req.Search)
	assert.Contains(t, req.Prompt, "Location: Jakarta")
	assert.Contains(t, req.Prompt, "Capital: Rp 10.000.000")
	assert.Contains(t, req.Prompt, "Industry: all industries")
}

func TestAnalyzeMarketFailures(t *testing.T) {
	t.Run("call failure", func(t *testing.T) {
		a := newTestAdvisor(&fakeGenerator{err: gemini.ErrNoCredential})
		_, err := a.AnalyzeMarket(context.Background(), models.MarketInputs{})
		assert.ErrorIs(t, err, ErrMarketAnalysis)
		assert.ErrorIs(t, err, gemini.ErrNoCredential)
	})

	t.Run("schema mismatch", func(t *testing.T) {
		a := newTestAdvisor(&fakeGenerator{text: `{"summary":"x","market_needs":[]}`})
		_, err := a.AnalyzeMarket(context.Background(), models.MarketInputs{})
		assert.ErrorIs(t, err, ErrMarketAnalysis)
		assert.ErrorIs(t, err, extract.ErrNoValidJSON)
	})

	t.Run("prose only", func(t *testing.T) {
		a := newTestAdvisor(&fakeGenerator{text: "I could not find anything."})
		_, err := a.AnalyzeMarket(context.Background(), models.MarketInputs{})
		assert.ErrorIs(t, err, extract.ErrNoJSON)
	})
}

func TestInDepthAnalysis(t *testing.T) {
	gen := &fakeGenerator{text: "  ## Demand\n**High**  "}
	a := newTestAdvisor(gen)

	got, err := a.InDepthAnalysis(context.Background(), models.MarketNeed{Need: "Healthy snacks"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "## Demand\n**High**", got.Content)

	req := gen.requests[0]
	assert.Equal(t, "deep-model", req.Model)
	assert.False(t, req.Search)
	assert.Contains(t, req.Prompt, `"Healthy snacks"`)
	assert.Contains(t, req.Prompt, `Target audience: "general"`)
	assert.Contains(t, req.Prompt, "Estimated capital: unspecified")

	_, err = newTestAdvisor(&fakeGenerator{text: "   "}).InDepthAnalysis(context.Background(), models.MarketNeed{}, "", 0)
	assert.ErrorIs(t, err, ErrInDepthAnalysis)
}

func TestRecommendProducts(t *testing.T) {
	gen := &fakeGenerator{text: `{"products":[` +
		`{"name":"A","score":60,"benefits":"b","weaknesses":"w"},` +
		`{"name":"B","score":95,"benefits":"b","weaknesses":"w"},` +
		`{"name":"C","score":80,"benefits":"b","weaknesses":"w"}]}`}
	a := newTestAdvisor(gen)

	got, err := a.RecommendProducts(context.Background(), "analysis text")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, float32(0.8), gen.requests[0].Temperature)
	assert.Contains(t, gen.requests[0].Prompt, `"analysis text"`)
}

func TestBuildMvpGuide(t *testing.T) {
	gen := &fakeGenerator{text: `{"mvp_steps":[{"phase":1,"activity":"Validate","detail":"Survey","estimated_time":"1 week","estimated_cost":1500000}]}`}
	a := newTestAdvisor(gen)

	got, err := a.BuildMvpGuide(context.Background(), "Snack Box", "students", 5000000)
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, int64(1500000), got.Steps[0].EstimatedCost)
	assert.Contains(t, gen.requests[0].Prompt, "Starting capital: Rp 5.000.000")

	_, err = newTestAdvisor(&fakeGenerator{err: errors.New("boom")}).BuildMvpGuide(context.Background(), "x", "", 0)
	assert.ErrorIs(t, err, ErrMvpGuide)
}

func TestPlanPromotion(t *testing.T) {
	gen := &fakeGenerator{text: `{"promo_plan":[{"timeline":"Week 1","activity":"Setup","notes":"n","tools":"Canva","estimated_time":"5 hours","estimated_cost":0,"deadline":"2026-11-07"}]}`}
	a := newTestAdvisor(gen)

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	got, err := a.PlanPromotion(context.Background(), "Snack Box", "students", start, end)
	require.NoError(t, err)
	require.Len(t, got.Plan, 1)
	assert.Equal(t, "Canva", got.Plan[0].Tools)
	assert.Contains(t, gen.requests[0].Prompt, "from 2026-11-01 to 2026-11-30")

	_, err = newTestAdvisor(&fakeGenerator{text: `{"promo_plan":[{"timeline":"x"}]}`}).PlanPromotion(context.Background(), "x", "", start, end)
	assert.ErrorIs(t, err, ErrPromoStrategy)
}

func TestLoadInstructions(t *testing.T) {
	def, err := LoadInstructions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInstructions(), def)

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mvp_guide: You are a lean startup coach.\n"), 0o600))

	got, err := LoadInstructions(path)
	require.NoError(t, err)
	assert.Equal(t, "You are a lean startup coach.", got.MvpGuide)
	assert.Equal(t, DefaultInstructions().MarketAnalysis, got.MarketAnalysis)

	_, err = LoadInstructions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
