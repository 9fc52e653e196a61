package wizard

import (
	"time"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

type MarketState struct {
	Inputs       models.MarketInputs    `json:"inputs"`
	Result       *models.MarketAnalysis `json:"result"`
	SelectedNeed *models.MarketNeed     `json:"selected_need"`
	Status       Status                 `json:"status"`
	Error        string                 `json:"error,omitempty"`
}

type RecommendationState struct {
	Analysis        *models.InDepthAnalysis        `json:"in_depth_analysis"`
	Products        []models.ProductRecommendation `json:"products"`
	SelectedProduct *models.ProductRecommendation  `json:"selected_product"`
	Status          Status                         `json:"status"`
	Error           string                         `json:"error,omitempty"`
}

type GuideState struct {
	Guide  *models.MvpGuide `json:"mvp_guide"`
	Status Status           `json:"status"`
	Error  string           `json:"error,omitempty"`
}

type PromoState struct {
	Inputs   models.PromoInputs    `json:"inputs"`
	Strategy *models.PromoStrategy `json:"strategy"`
	Status   Status                `json:"status"`
	Error    string                `json:"error,omitempty"`
}

// State is the whole wizard for one session. Stage results are replaced
// wholesale and never mutated in place, so a value copy is a safe snapshot.
type State struct {
	ID             string              `json:"id"`
	Current        Stage               `json:"current_stage"`
	Market         MarketState         `json:"market"`
	Recommendation RecommendationState `json:"recommendation"`
	Guide          GuideState          `json:"guide"`
	Promo          PromoState          `json:"promo"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func initialState(id string) State {
	return State{
		ID:      id,
		Current: StageMarketAnalysis,
		Market: MarketState{
			Inputs: models.MarketInputs{Scale: models.ScaleSmall, Industries: []string{}},
			Status: StatusIdle,
		},
		Recommendation: RecommendationState{Status: StatusIdle},
		Guide:          GuideState{Status: StatusIdle},
		Promo:          PromoState{Status: StatusIdle},
		UpdatedAt:      time.Now().UTC(),
	}
}

// Complete reports whether every stage has produced its result.
func (s State) Complete() bool {
	return s.Market.Result != nil &&
		s.Market.SelectedNeed != nil &&
		s.Recommendation.SelectedProduct != nil &&
		s.Guide.Guide != nil &&
		s.Promo.Strategy != nil
}

// StatusOf returns the status and failure message of a stage.
func (s State) StatusOf(stage Stage) (Status, string) {
	switch stage {
	case StageMarketAnalysis:
		return s.Market.Status, s.Market.Error
	case StageProductRecs:
		return s.Recommendation.Status, s.Recommendation.Error
	case StageMvpGuide:
		return s.Guide.Status, s.Guide.Error
	case StagePromoStrategy:
		return s.Promo.Status, s.Promo.Error
	}
	return StatusIdle, ""
}

func (s *State) setStatus(stage Stage, status Status, msg string) {
	switch stage {
	case StageMarketAnalysis:
		s.Market.Status, s.Market.Error = status, msg
	case StageProductRecs:
		s.Recommendation.Status, s.Recommendation.Error = status, msg
	case StageMvpGuide:
		s.Guide.Status, s.Guide.Error = status, msg
	case StagePromoStrategy:
		s.Promo.Status, s.Promo.Error = status, msg
	}
}

// clearFrom discards the results of stage and every stage after it.
// Selections and inputs that belong to earlier stages are kept.
func (s *State) clearFrom(stage Stage) {
	if stage <= StageMarketAnalysis {
		s.Market.Result = nil
		s.Market.SelectedNeed = nil
		s.Market.Status, s.Market.Error = StatusIdle, ""
	}
	if stage <= StageProductRecs {
		s.Recommendation = RecommendationState{Status: StatusIdle}
	}
	if stage <= StageMvpGuide {
		s.Guide = GuideState{Status: StatusIdle}
	}
	if stage <= StagePromoStrategy {
		s.Promo.Strategy = nil
		s.Promo.Status, s.Promo.Error = StatusIdle, ""
	}
	if stage < StagePromoStrategy {
		s.Promo.Inputs = models.PromoInputs{}
	}
}

func failureMessage(stage Stage) string {
	return "failed to load " + stage.Title()
}
