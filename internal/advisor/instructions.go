package advisor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Instructions holds the role statement that opens each stage prompt.
// Operators can override any of them from a YAML file.
type Instructions struct {
	MarketAnalysis  string `yaml:"market_analysis"`
	InDepthAnalysis string `yaml:"in_depth_analysis"`
	ProductRecs     string `yaml:"product_recommendations"`
	MvpGuide        string `yaml:"mvp_guide"`
	PromoStrategy   string `yaml:"promo_strategy"`
}

func DefaultInstructions() Instructions {
	return Instructions{
		MarketAnalysis:  "You are an expert market analyst from Indonesia.",
		InDepthAnalysis: "You are a senior business and product analyst.",
		ProductRecs:     "You are a product strategist who turns market research into concrete offerings.",
		MvpGuide:        "You are an experienced product manager.",
		PromoStrategy:   "You are a digital marketing strategist.",
	}
}

// Merge overwrites fields of i with the non-empty fields of overlay.
func (i *Instructions) Merge(overlay Instructions) {
	if overlay.MarketAnalysis != "" {
		i.MarketAnalysis = overlay.MarketAnalysis
	}
	if overlay.InDepthAnalysis != "" {
		i.InDepthAnalysis = overlay.InDepthAnalysis
	}
	if overlay.ProductRecs != "" {
		i.ProductRecs = overlay.ProductRecs
	}
	if overlay.MvpGuide != "" {
		i.MvpGuide = overlay.MvpGuide
	}
	if overlay.PromoStrategy != "" {
		i.PromoStrategy = overlay.PromoStrategy
	}
}

// LoadInstructions returns the default instructions with any overrides from
// path applied. An empty path yields the defaults.
func LoadInstructions(path string) (Instructions, error) {
	out := DefaultInstructions()
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read prompts file: %w", err)
	}

	var overlay Instructions
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return out, fmt.Errorf("parse prompts file: %w", err)
	}

	out.Merge(overlay)
	return out, nil
}
