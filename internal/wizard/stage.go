package wizard

import "fmt"

// Stage identifies one of the four sequential wizard phases.
type Stage int

const (
	StageMarketAnalysis Stage = iota
	StageProductRecs
	StageMvpGuide
	StagePromoStrategy
)

const stageCount = int(StagePromoStrategy) + 1

var stageNames = [stageCount]string{
	"market_analysis",
	"product_recs",
	"mvp_guide",
	"promo_strategy",
}

var stageTitles = [stageCount]string{
	"market analysis",
	"product recommendations",
	"MVP guide",
	"promotion strategy",
}

// Stages returns every stage in wizard order.
func Stages() []Stage {
	return []Stage{StageMarketAnalysis, StageProductRecs, StageMvpGuide, StagePromoStrategy}
}

func (s Stage) valid() bool {
	return s >= StageMarketAnalysis && s <= StagePromoStrategy
}

func (s Stage) String() string {
	if !s.valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Title is the human readable stage name.
func (s Stage) Title() string {
	if !s.valid() {
		return s.String()
	}
	return stageTitles[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Status is the load state of a single stage.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)
