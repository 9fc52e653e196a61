package models

import (
	"slices"
	"strings"
	"time"
)

// Business scales accepted by the market analysis stage.
const (
	ScaleMicro  = "micro"
	ScaleSmall  = "small"
	ScaleMedium = "medium"
	ScaleLarge  = "large"
)

// Scales lists the business scales from smallest to largest.
var Scales = []string{ScaleMicro, ScaleSmall, ScaleMedium, ScaleLarge}

// ValidScale reports whether s is one of Scales. Matching is exact; callers
// normalise case and whitespace first.
func ValidScale(s string) bool {
	return slices.Contains(Scales, s)
}

type MarketInputs struct {
	Location       string   `json:"location"`
	Industries     []string `json:"industries"`
	CustomIndustry string   `json:"custom_industry"`
	Audience       string   `json:"audience"`
	Scale          string   `json:"scale"`
	Capital        int64    `json:"capital" binding:"gte=0"`
}

// Industry returns the custom industry when set, otherwise the selected
// industries joined with commas.
func (m MarketInputs) Industry() string {
	if m.CustomIndustry != "" {
		return m.CustomIndustry
	}
	return strings.Join(m.Industries, ", ")
}

type MarketNeed struct {
	Need        string `json:"need" jsonschema:"minLength=1"`
	Description string `json:"description"`
	Score       int    `json:"score" jsonschema:"minimum=0,maximum=100"`
}

type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type MarketAnalysis struct {
	Summary     string            `json:"summary" jsonschema:"minLength=1"`
	MarketNeeds []MarketNeed      `json:"market_needs" jsonschema:"minItems=1"`
	Sources     []GroundingSource `json:"sources,omitempty"`
}

type InDepthAnalysis struct {
	Content string `json:"content"`
}

type ProductRecommendation struct {
	Name       string `json:"name" jsonschema:"minLength=1"`
	Score      int    `json:"score" jsonschema:"minimum=0,maximum=100"`
	Benefits   string `json:"benefits"`
	Weaknesses string `json:"weaknesses"`
}

type ProductRecommendations struct {
	Products []ProductRecommendation `json:"products" jsonschema:"minItems=1"`
}

type MvpStep struct {
	Phase         int    `json:"phase" jsonschema:"minimum=1"`
	Activity      string `json:"activity" jsonschema:"minLength=1"`
	Detail        string `json:"detail"`
	EstimatedTime string `json:"estimated_time"`
	EstimatedCost int64  `json:"estimated_cost" jsonschema:"minimum=0"`
}

type MvpGuide struct {
	Steps []MvpStep `json:"mvp_steps" jsonschema:"minItems=1"`
}

// TotalCost sums the cost estimates of every step.
func (g MvpGuide) TotalCost() int64 {
	var total int64
	for _, s := range g.Steps {
		total += s.EstimatedCost
	}
	return total
}

type PromoInputs struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// Window parses the start and end dates of the promotion period.
func (p PromoInputs) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, p.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.DateOnly, p.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type PromoPlanItem struct {
	Timeline      string `json:"timeline" jsonschema:"minLength=1"`
	Activity      string `json:"activity" jsonschema:"minLength=1"`
	Notes         string `json:"notes"`
	Tools         string `json:"tools"`
	EstimatedTime string `json:"estimated_time"`
	EstimatedCost int64  `json:"estimated_cost" jsonschema:"minimum=0"`
	Deadline      string `json:"deadline"`
}

type PromoStrategy struct {
	Plan []PromoPlanItem `json:"promo_plan" jsonschema:"minItems=1"`
}

// TotalCost sums the cost estimates of every plan item.
func (p PromoStrategy) TotalCost() int64 {
	var total int64
	for _, it := range p.Plan {
		total += it.EstimatedCost
	}
	return total
}
