package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/logging"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

type recordingAdvisor struct {
	mu         sync.Mutex
	market     models.MarketInputs
	start, end time.Time
	guideErr   error
}

func (r *recordingAdvisor) AnalyzeMarket(_ context.Context, in models.MarketInputs) (*models.MarketAnalysis, error) {
	r.mu.Lock()
	r.market = in
	r.mu.Unlock()
	return &models.MarketAnalysis{
		Summary: "Coffee demand is rising.",
		MarketNeeds: []models.MarketNeed{
			{Need: "Affordable specialty coffee", Description: "Students want cheap good coffee", Score: 91},
			{Need: "Study spaces", Description: "Quiet places", Score: 75},
		},
	}, nil
}

func (r *recordingAdvisor) InDepthAnalysis(_ context.Context, need models.MarketNeed, _ string, _ int64) (*models.InDepthAnalysis, error) {
	return &models.InDepthAnalysis{Content: "## " + need.Need}, nil
}

func (r *recordingAdvisor) RecommendProducts(context.Context, string) ([]models.ProductRecommendation, error) {
	return []models.ProductRecommendation{
		{Name: "Coffee Cart", Score: 93, Benefits: "Low rent", Weaknesses: "Weather"},
		{Name: "Cafe", Score: 70, Benefits: "Seating", Weaknesses: "Rent"},
	}, nil
}

func (r *recordingAdvisor) BuildMvpGuide(context.Context, string, string, int64) (*models.MvpGuide, error) {
	if r.guideErr != nil {
		return nil, r.guideErr
	}
	return &models.MvpGuide{Steps: []models.MvpStep{
		{Phase: 1, Activity: "Buy cart", EstimatedTime: "1 week", EstimatedCost: 1500000},
	}}, nil
}

func (r *recordingAdvisor) PlanPromotion(_ context.Context, _ string, _ string, start, end time.Time) (*models.PromoStrategy, error) {
	r.mu.Lock()
	r.start, r.end = start, end
	r.mu.Unlock()
	return &models.PromoStrategy{Plan: []models.PromoPlanItem{
		{Timeline: "Week 1", Activity: "Campus flyers", Tools: "Canva", EstimatedCost: 250000, Deadline: "2026-10-26"},
	}}, nil
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      any         `json:"id"`
	Result  *TaskResult `json:"result"`
	Error   *RPCError   `json:"error"`
}

func newTestServer(t *testing.T, adv wizard.Advisor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.Discard()
	w := wizard.New(adv, wizard.NewStore(0), 5*time.Second, logger)
	h := NewA2AHandler(w, locale.New("id"), logger)
	h.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.Register(r)
	return r
}

func post(t *testing.T, r http.Handler, body any) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/a2a/ideation", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sendMessage(method string, parts ...MessagePart) JSONRPCRequest {
	return JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "req-1",
		Method:  method,
		Params: MessageParams{Message: A2AMessage{
			Kind:  "message",
			Role:  RoleUser,
			Parts: parts,
		}},
	}
}

func TestServeAgentCard(t *testing.T) {
	r := newTestServer(t, &recordingAdvisor{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var card map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "Idea Wizard Agent", card["name"])
}

func TestIdeationCompletes(t *testing.T) {
	adv := &recordingAdvisor{}
	r := newTestServer(t, adv)

	resp := post(t, r, sendMessage("message/send",
		TextPart("location: Jakarta, industry: coffee, audience: students, capital: Rp 10.000.000")))

	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)

	assert.Equal(t, "Jakarta", adv.market.Location)
	assert.Equal(t, "coffee", adv.market.CustomIndustry)
	assert.Equal(t, int64(10000000), adv.market.Capital)
	assert.Equal(t, "2026-10-19", adv.start.Format(time.DateOnly))
	assert.Equal(t, "2026-11-18", adv.end.Format(time.DateOnly))

	require.Len(t, resp.Result.Artifacts, 2)
	text := resp.Result.Artifacts[0].Parts[0].Text
	assert.Contains(t, text, "# Business Idea Plan: coffee in Jakarta")
	assert.Contains(t, text, "**Coffee Cart** (score 93)")
	assert.Contains(t, text, "Rp 1.500.000")
	assert.Contains(t, text, "2026-10-19 to 2026-11-18")

	data := resp.Result.Artifacts[1].Parts[0]
	assert.Equal(t, "data", data.Kind)
	state, ok := data.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "promo_strategy", state["current_stage"])
}

func TestIdeationDirectMessage(t *testing.T) {
	r := newTestServer(t, &recordingAdvisor{})

	resp := post(t, r, MessageParams{Message: A2AMessage{
		Kind:  "message",
		Role:  RoleUser,
		Parts: []MessagePart{TextPart("coffee")},
	}})

	require.NotNil(t, resp.Result)
	assert.Equal(t, "direct-message", resp.Result.ID)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)
}

func TestIdeationUsesHistory(t *testing.T) {
	adv := &recordingAdvisor{}
	r := newTestServer(t, adv)

	history := []MessagePart{
		TextPart("<p>industry: bakery, location: Surabaya</p>"),
		TextPart("Generating your plan..."),
	}
	resp := post(t, r, sendMessage("agent/task", DataPart(history)))

	require.NotNil(t, resp.Result)
	assert.Equal(t, StateCompleted, resp.Result.Status.State)
	assert.Equal(t, "bakery", adv.market.CustomIndustry)
	assert.Equal(t, "Surabaya", adv.market.Location)
}

func TestIdeationFailures(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		r := newTestServer(t, &recordingAdvisor{})
		resp := post(t, r, sendMessage("message/send", TextPart("   ")))

		require.NotNil(t, resp.Result)
		assert.Equal(t, StateFailed, resp.Result.Status.State)
		assert.Contains(t, resp.Result.Status.Message.Parts[0].Text, "describe your business idea")
	})

	t.Run("stage failure", func(t *testing.T) {
		r := newTestServer(t, &recordingAdvisor{guideErr: errors.New("quota exceeded")})
		resp := post(t, r, sendMessage("message/send", TextPart("coffee")))

		require.NotNil(t, resp.Result)
		assert.Equal(t, StateFailed, resp.Result.Status.State)
		assert.Contains(t, resp.Result.Status.Message.Parts[0].Text, "failed to load MVP guide")
	})

	t.Run("unknown method", func(t *testing.T) {
		r := newTestServer(t, &recordingAdvisor{})
		resp := post(t, r, sendMessage("tasks/cancel", TextPart("coffee")))

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	})

	t.Run("wrong version", func(t *testing.T) {
		r := newTestServer(t, &recordingAdvisor{})
		req := sendMessage("message/send", TextPart("coffee"))
		req.JSONRPC = "1.0"
		resp := post(t, r, req)

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
	})
}
