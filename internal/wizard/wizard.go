// Package wizard implements the linear four-stage ideation state machine.
//
// Each stage collects input, issues its request to the advisor, and unlocks
// the next stage once its result (and, where applicable, a selection) exists:
//
//	market_analysis -> product_recs -> mvp_guide -> promo_strategy
//
// Requests run outside the session lock. Re-selecting the value whose stage
// is already ready or loading never issues a second request, and concurrent
// identical selections share a single flight.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

// Advisor produces the AI result of every stage.
type Advisor interface {
	AnalyzeMarket(ctx context.Context, in models.MarketInputs) (*models.MarketAnalysis, error)
	InDepthAnalysis(ctx context.Context, need models.MarketNeed, audience string, capital int64) (*models.InDepthAnalysis, error)
	RecommendProducts(ctx context.Context, analysis string) ([]models.ProductRecommendation, error)
	BuildMvpGuide(ctx context.Context, product string, audience string, capital int64) (*models.MvpGuide, error)
	PlanPromotion(ctx context.Context, product string, audience string, start, end time.Time) (*models.PromoStrategy, error)
}

type Wizard struct {
	advisor Advisor
	store   *Store
	flights singleflight.Group
	timeout time.Duration
	logger  *logrus.Entry
}

// New creates a Wizard. timeout bounds each stage run independently of the
// caller's context so an abandoned request still settles the stage.
func New(advisor Advisor, store *Store, timeout time.Duration, logger *logrus.Logger) *Wizard {
	return &Wizard{
		advisor: advisor,
		store:   store,
		timeout: timeout,
		logger:  logger.WithField("system", "wizard"),
	}
}

func (w *Wizard) Create() (State, error) {
	sess, err := w.store.Create()
	if err != nil {
		return State{}, err
	}
	w.logger.WithField("session", sess.ID()).Info("session created")
	return sess.Snapshot(), nil
}

func (w *Wizard) Get(id string) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}
	return sess.Snapshot(), nil
}

func (w *Wizard) Delete(id string) error {
	if err := w.store.Delete(id); err != nil {
		return err
	}
	w.logger.WithField("session", id).Info("session deleted")
	return nil
}

// Reset returns the session to its initial empty state at the first stage.
// Requests still in flight are discarded when they complete.
func (w *Wizard) Reset(id string) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}
	w.logger.WithField("session", id).Info("session reset")
	return sess.reset(), nil
}

// Report returns the state of a session whose every stage is complete.
func (w *Wizard) Report(id string) (State, error) {
	st, err := w.Get(id)
	if err != nil {
		return State{}, err
	}
	if !st.Complete() {
		return st, ErrReportIncomplete
	}
	return st, nil
}

// SubmitMarket runs the market analysis. Inputs are normalised before they
// are validated, so "Small" is accepted as "small". Every submission
// replaces the previous analysis and clears all later stages.
func (w *Wizard) SubmitMarket(ctx context.Context, id string, in models.MarketInputs) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}

	in = normalizeMarket(in)
	if !models.ValidScale(in.Scale) {
		return sess.Snapshot(), fmt.Errorf("%w: scale %q, want one of %s", ErrInvalidInput, in.Scale, strings.Join(models.Scales, ", "))
	}
	if in.Capital < 0 {
		return sess.Snapshot(), fmt.Errorf("%w: negative capital %d", ErrInvalidInput, in.Capital)
	}

	sess.mu.Lock()
	sess.state.Market.Inputs = in
	gen := sess.begin(StageMarketAnalysis)
	sess.mu.Unlock()

	w.run(ctx, sess, StageMarketAnalysis, gen, w.loadMarket)
	return sess.outcome(StageMarketAnalysis)
}

// SelectNeed selects one of the analysed market needs and loads the
// in-depth analysis and product recommendations for it.
func (w *Wizard) SelectNeed(ctx context.Context, id string, index int) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}

	sess.mu.Lock()
	market := sess.state.Market
	if market.Result == nil || market.Status != StatusReady {
		sess.mu.Unlock()
		return sess.Snapshot(), fmt.Errorf("%w: %s", ErrStageLocked, StageProductRecs)
	}
	if index < 0 || index >= len(market.Result.MarketNeeds) {
		sess.mu.Unlock()
		return sess.Snapshot(), fmt.Errorf("%w: need %d", ErrInvalidSelection, index)
	}

	need := market.Result.MarketNeeds[index]
	same := market.SelectedNeed != nil && *market.SelectedNeed == need
	gen, ok := w.claim(sess, StageProductRecs, same)
	if !ok {
		st := sess.state
		sess.mu.Unlock()
		return st, nil
	}
	sess.state.Market.SelectedNeed = &need
	sess.mu.Unlock()

	w.run(ctx, sess, StageProductRecs, gen, w.loadRecommendations)
	return sess.outcome(StageProductRecs)
}

// SelectProduct selects one recommended product and loads its MVP guide.
func (w *Wizard) SelectProduct(ctx context.Context, id string, index int) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}

	sess.mu.Lock()
	rec := sess.state.Recommendation
	if rec.Status != StatusReady || len(rec.Products) == 0 {
		sess.mu.Unlock()
		return sess.Snapshot(), fmt.Errorf("%w: %s", ErrStageLocked, StageMvpGuide)
	}
	if index < 0 || index >= len(rec.Products) {
		sess.mu.Unlock()
		return sess.Snapshot(), fmt.Errorf("%w: product %d", ErrInvalidSelection, index)
	}

	product := rec.Products[index]
	same := rec.SelectedProduct != nil && *rec.SelectedProduct == product
	gen, ok := w.claim(sess, StageMvpGuide, same)
	if !ok {
		st := sess.state
		sess.mu.Unlock()
		return st, nil
	}
	sess.state.Recommendation.SelectedProduct = &product
	sess.mu.Unlock()

	w.run(ctx, sess, StageMvpGuide, gen, w.loadGuide)
	return sess.outcome(StageMvpGuide)
}

// SubmitPromo loads the promotion strategy for the given period.
func (w *Wizard) SubmitPromo(ctx context.Context, id string, in models.PromoInputs) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}

	start, end, err := in.Window()
	if err != nil {
		return sess.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if end.Before(start) {
		return sess.Snapshot(), fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidInput, in.EndDate, in.StartDate)
	}

	sess.mu.Lock()
	if sess.state.Guide.Guide == nil || sess.state.Guide.Status != StatusReady {
		sess.mu.Unlock()
		return sess.Snapshot(), fmt.Errorf("%w: %s", ErrStageLocked, StagePromoStrategy)
	}

	same := sess.state.Promo.Inputs == in
	gen, ok := w.claim(sess, StagePromoStrategy, same)
	if !ok {
		st := sess.state
		sess.mu.Unlock()
		return st, nil
	}
	sess.state.Promo.Inputs = in
	sess.mu.Unlock()

	w.run(ctx, sess, StagePromoStrategy, gen, w.loadPromo)
	return sess.outcome(StagePromoStrategy)
}

// claim decides whether a selection needs a request. It returns the
// generation to run or join, or ok=false when the stage already holds the
// result for this selection. Callers hold sess.mu.
func (w *Wizard) claim(sess *Session, stage Stage, same bool) (uint64, bool) {
	status, _ := sess.state.StatusOf(stage)
	if same {
		switch status {
		case StatusReady:
			return 0, false
		case StatusLoading:
			return sess.gens[stage], true
		}
	}
	return sess.begin(stage), true
}

type loader func(ctx context.Context, sess *Session, st State, gen uint64)

// run executes load for one generation of a stage. Concurrent callers for
// the same generation share the flight; a caller arriving after the flight
// settled finds the stage no longer pending and returns immediately.
func (w *Wizard) run(ctx context.Context, sess *Session, stage Stage, gen uint64, load loader) {
	key := fmt.Sprintf("%s/%s/%d", sess.ID(), stage, gen)
	w.flights.Do(key, func() (any, error) {
		st, ok := sess.pending(stage, gen)
		if !ok {
			return nil, nil
		}

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()

		log := w.logger.WithFields(logrus.Fields{"session": sess.ID(), "stage": stage.String()})
		log.Info("stage started")
		start := time.Now()
		load(runCtx, sess, st, gen)

		status, _ := sess.Snapshot().StatusOf(stage)
		log.WithFields(logrus.Fields{"status": status, "duration": time.Since(start)}).Info("stage finished")
		return nil, nil
	})
}

func (w *Wizard) loadMarket(ctx context.Context, sess *Session, st State, gen uint64) {
	result, err := w.advisor.AnalyzeMarket(ctx, st.Market.Inputs)
	if err != nil {
		sess.fail(StageMarketAnalysis, gen, failureMessage(StageMarketAnalysis), err)
		return
	}

	sess.apply(StageMarketAnalysis, gen, func(s *State) {
		s.Market.Result = result
		s.setStatus(StageMarketAnalysis, StatusReady, "")
	})
}

func (w *Wizard) loadRecommendations(ctx context.Context, sess *Session, st State, gen uint64) {
	need := *st.Market.SelectedNeed
	in := st.Market.Inputs

	analysis, err := w.advisor.InDepthAnalysis(ctx, need, in.Audience, in.Capital)
	if err != nil {
		sess.fail(StageProductRecs, gen, "failed to load in-depth analysis", err)
		return
	}
	if !sess.apply(StageProductRecs, gen, func(s *State) { s.Recommendation.Analysis = analysis }) {
		return
	}

	products, err := w.advisor.RecommendProducts(ctx, analysis.Content)
	if err != nil {
		sess.fail(StageProductRecs, gen, failureMessage(StageProductRecs), err)
		return
	}

	sess.apply(StageProductRecs, gen, func(s *State) {
		s.Recommendation.Products = products
		s.setStatus(StageProductRecs, StatusReady, "")
	})
}

func (w *Wizard) loadGuide(ctx context.Context, sess *Session, st State, gen uint64) {
	product := st.Recommendation.SelectedProduct.Name
	in := st.Market.Inputs

	guide, err := w.advisor.BuildMvpGuide(ctx, product, in.Audience, in.Capital)
	if err != nil {
		sess.fail(StageMvpGuide, gen, failureMessage(StageMvpGuide), err)
		return
	}

	sess.apply(StageMvpGuide, gen, func(s *State) {
		s.Guide.Guide = guide
		s.setStatus(StageMvpGuide, StatusReady, "")
		s.Current = StagePromoStrategy
	})
}

func (w *Wizard) loadPromo(ctx context.Context, sess *Session, st State, gen uint64) {
	start, end, err := st.Promo.Inputs.Window()
	if err != nil {
		sess.fail(StagePromoStrategy, gen, failureMessage(StagePromoStrategy), err)
		return
	}

	strategy, err := w.advisor.PlanPromotion(ctx, st.Recommendation.SelectedProduct.Name, st.Market.Inputs.Audience, start, end)
	if err != nil {
		sess.fail(StagePromoStrategy, gen, failureMessage(StagePromoStrategy), err)
		return
	}

	sess.apply(StagePromoStrategy, gen, func(s *State) {
		s.Promo.Strategy = strategy
		s.setStatus(StagePromoStrategy, StatusReady, "")
	})
}

func normalizeMarket(in models.MarketInputs) models.MarketInputs {
	in.Location = strings.TrimSpace(in.Location)
	in.CustomIndustry = strings.TrimSpace(in.CustomIndustry)
	in.Audience = strings.TrimSpace(in.Audience)
	in.Scale = strings.ToLower(strings.TrimSpace(in.Scale))
	if in.Scale == "" {
		in.Scale = models.ScaleSmall
	}

	industries := make([]string, 0, len(in.Industries))
	for _, ind := range in.Industries {
		if ind = strings.TrimSpace(ind); ind != "" {
			industries = append(industries, ind)
		}
	}
	in.Industries = industries
	if in.CustomIndustry != "" {
		in.Industries = []string{}
	}
	return in
}
