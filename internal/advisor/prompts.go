package advisor

import (
	"fmt"
	"time"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
)

const (
	defaultLocation = "Indonesia"
	defaultIndustry = "all industries"
	defaultAudience = "general"
	unspecified     = "unspecified"
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (a *Advisor) languageLine() string {
	return fmt.Sprintf("Write every piece of text in %s.", orDefault(a.cfg.Language, "English"))
}

func (a *Advisor) marketPrompt(in models.MarketInputs) string {
	return fmt.Sprintf(`%s

Based on the following information:
- Location: %s
- Industry: %s
- Target audience: %s
- Business scale: %s
- Capital: %s

Research the current market using web search.
1. Write a sharp, easy to read market analysis summary (use line breaks for readability).
2. Identify the 5 most urgent and relevant market needs.
3. Score each need from 1 to 100 based on current demand and potential.
4. Order the list from highest to lowest score.

%s

Respond ONLY with a JSON object matching this JSON Schema:
%s

Example: {"summary": "Your analysis summary...", "market_needs": [{"need": "Market need name", "description": "Short description", "score": 95}]}`,
		a.cfg.Instructions.MarketAnalysis,
		orDefault(in.Location, defaultLocation),
		orDefault(in.Industry(), defaultIndustry),
		orDefault(in.Audience, defaultAudience),
		orDefault(in.Scale, unspecified),
		a.money.Capital(in.Capital, unspecified),
		a.languageLine(),
		marketSchema.JSON(),
	)
}

func (a *Advisor) inDepthPrompt(need models.MarketNeed, audience string, capital int64) string {
	return fmt.Sprintf(`%s

Perform an in-depth analysis of this market need: "%s".
Additional information:
- Target audience: "%s"
- Estimated capital: %s

Cover the following points in detail:
- **Demand analysis:** why this need matters right now. Include data or percentages where possible.
- **Customer benefits:** the main value customers receive.
- **Profit potential:** estimated monthly revenue (minimum, average and maximum) for a business serving this need.
- **Target segment:** the most suitable audience segment.

Use markdown for visual hierarchy (bold, headings, lists) and highlight the important figures so the key points stand out.
%s`,
		a.cfg.Instructions.InDepthAnalysis,
		need.Need,
		orDefault(audience, defaultAudience),
		a.money.Capital(capital, unspecified),
		a.languageLine(),
	)
}

func (a *Advisor) productPrompt(analysis string) string {
	return fmt.Sprintf(`%s

Based on this in-depth analysis: "%s", recommend 3 concrete and innovative products or services.

For each recommendation:
1. Give the product an attractive name.
2. Score it from 1 to 100 for fit with the analysis and chance of success.
3. Explain its main benefits for the audience.
4. List its potential challenges or weaknesses.

%s

Respond ONLY with a JSON object matching this JSON Schema:
%s

Example: {"products": [{"name": "Product A", "score": 92, "benefits": "Benefits of A...", "weaknesses": "Weaknesses of A..."}]}`,
		a.cfg.Instructions.ProductRecs,
		analysis,
		a.languageLine(),
		productSchema.JSON(),
	)
}

func (a *Advisor) mvpPrompt(product, audience string, capital int64) string {
	return fmt.Sprintf(`%s

Create a step-by-step guide to building a Minimum Viable Product (MVP) for the product: "%s".
Context:
- Target audience: "%s"
- Starting capital: %s

Present the guide as table rows. Costs are whole rupiah amounts without separators.

%s

Respond ONLY with a JSON object matching this JSON Schema:
%s

Example: {"mvp_steps": [{"phase": 1, "activity": "Idea validation", "detail": "Run an online survey...", "estimated_time": "1 week", "estimated_cost": 0}]}`,
		a.cfg.Instructions.MvpGuide,
		product,
		orDefault(audience, defaultAudience),
		a.money.Capital(capital, unspecified),
		a.languageLine(),
		mvpSchema.JSON(),
	)
}

func (a *Advisor) promoPrompt(product, audience string, start, end time.Time) string {
	return fmt.Sprintf(`%s

Create a comprehensive promotion strategy for the product "%s" targeting "%s".
Promotion period: from %s to %s.

Present it as table rows with an actionable, realistic plan. Every deadline must fall inside the promotion period and use the YYYY-MM-DD format. Costs are whole rupiah amounts without separators.

%s

Respond ONLY with a JSON object matching this JSON Schema:
%s

Example: {"promo_plan": [{"timeline": "Week 1", "activity": "Social media setup", "notes": "Create Instagram and TikTok accounts...", "tools": "Canva, Buffer", "estimated_time": "5 hours", "estimated_cost": 0, "deadline": "%s"}]}`,
		a.cfg.Instructions.PromoStrategy,
		product,
		orDefault(audience, defaultAudience),
		start.Format(time.DateOnly),
		end.Format(time.DateOnly),
		a.languageLine(),
		promoSchema.JSON(),
		start.AddDate(0, 0, 6).Format(time.DateOnly),
	)
}
