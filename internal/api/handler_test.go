package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/export"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/logging"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

type stubAdvisor struct {
	mu        sync.Mutex
	marketErr error
	calls     int
}

func (s *stubAdvisor) AnalyzeMarket(_ context.Context, in models.MarketInputs) (*models.MarketAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.marketErr != nil {
		return nil, s.marketErr
	}
	return &models.MarketAnalysis{
		Summary:     "Market in " + in.Location,
		MarketNeeds: []models.MarketNeed{{Need: "Healthy snacks", Description: "desc", Score: 90}},
	}, nil
}

func (s *stubAdvisor) InDepthAnalysis(context.Context, models.MarketNeed, string, int64) (*models.InDepthAnalysis, error) {
	return &models.InDepthAnalysis{Content: "## Analysis\n\n- point"}, nil
}

func (s *stubAdvisor) RecommendProducts(context.Context, string) ([]models.ProductRecommendation, error) {
	return []models.ProductRecommendation{{Name: "Snack Box", Score: 88, Benefits: "b", Weaknesses: "w"}}, nil
}

func (s *stubAdvisor) BuildMvpGuide(context.Context, string, string, int64) (*models.MvpGuide, error) {
	return &models.MvpGuide{Steps: []models.MvpStep{{Phase: 1, Activity: "Validate", EstimatedTime: "1 week", EstimatedCost: 1500000}}}, nil
}

func (s *stubAdvisor) PlanPromotion(_ context.Context, _ string, _ string, start, _ time.Time) (*models.PromoStrategy, error) {
	return &models.PromoStrategy{Plan: []models.PromoPlanItem{{Timeline: "Week 1", Activity: "Launch", Tools: "Instagram", EstimatedCost: 250000, Deadline: start.Format(time.DateOnly)}}}, nil
}

func newTestRouter(t *testing.T, adv wizard.Advisor, maxSessions int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.Discard()
	w := wizard.New(adv, wizard.NewStore(maxSessions), 5*time.Second, logger)
	h := NewHandler(w, export.New("", locale.New("id")), logger)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/health", Health)
	h.Register(r.Group("/api"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) wizard.State {
	t.Helper()
	var st wizard.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeState(t, rec).ID
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, 0)
	rec := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestWizardFlowAndExports(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, 0)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	rec := do(t, r, http.MethodPost, base+"/market", models.MarketInputs{Location: "Jakarta", Scale: "small", Capital: 5000000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.Equal(t, "Market in Jakarta", st.Market.Result.Summary)
	assert.Equal(t, wizard.StatusReady, st.Market.Status)

	rec = do(t, r, http.MethodPost, base+"/needs/0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, wizard.StageProductRecs, decodeState(t, rec).Current)

	rec = do(t, r, http.MethodPost, base+"/products/0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, wizard.StagePromoStrategy, decodeState(t, rec).Current)

	rec = do(t, r, http.MethodPost, base+"/promo", models.PromoInputs{StartDate: "2026-11-01", EndDate: "2026-11-30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeState(t, rec).Complete())

	rec = do(t, r, http.MethodGet, base+"/export/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.PDFContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.PDFFilename)
	pages, err := strconv.Atoi(rec.Header().Get("X-Page-Count"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 1)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(t, r, http.MethodGet, base+"/export/xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.XLSXFilename)
	assert.NotZero(t, rec.Body.Len())
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, 0)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	rec := do(t, r, http.MethodGet, "/api/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, decodeError(t, rec).State)

	rec = do(t, r, http.MethodPost, base+"/needs/0", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	require.NotNil(t, resp.State)
	assert.Equal(t, id, resp.State.ID)

	rec = do(t, r, http.MethodGet, base+"/export/pdf", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/market", map[string]any{"scale": "enormous"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/market", map[string]any{"scale": "Medium"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ScaleMedium, decodeState(t, rec).Market.Inputs.Scale)

	rec = do(t, r, http.MethodPost, base+"/market", map[string]any{"capital": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/market", models.MarketInputs{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/needs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/needs/7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/promo", map[string]string{"start_date": "01/11/2026", "end_date": "2026-11-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStageFailure(t *testing.T) {
	adv := &stubAdvisor{marketErr: errors.New("upstream unavailable")}
	r := newTestRouter(t, adv, 0)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions/"+id+"/market", models.MarketInputs{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decodeError(t, rec)
	require.NotNil(t, resp.State)
	assert.Equal(t, wizard.StatusFailed, resp.State.Market.Status)
	assert.Equal(t, "failed to load market analysis", resp.State.Market.Error)
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, 1)
	id := createSession(t, r)

	rec := do(t, r, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sessions/"+id+"/market", models.MarketInputs{Location: "Bali"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeState(t, rec)
	assert.Equal(t, wizard.StageMarketAnalysis, st.Current)
	assert.Nil(t, st.Market.Result)
	assert.Equal(t, wizard.StatusIdle, st.Market.Status)

	rec = do(t, r, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
