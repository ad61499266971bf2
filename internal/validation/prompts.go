package validation

import (
	"encoding/json"
	"fmt"

	"github.com/mcalder/venturelens/internal/websearch"
	"github.com/mcalder/venturelens/internal/webscrape"
)

const processInputSchemaPrompt = `Required JSON schema:
{
  "idea_name": "clean concise name",
  "problem": "clearly stated problem",
  "solution": "proposed solution",
  "target_audience": "specific target audience",
  "uniqueness": "unique value proposition",
  "market": "market/industry",
  "revenue_model": "revenue model",
  "region": "geographic region",
  "additional_context": "synthesized context from all fields"
}`

func processInputPrompt(in IdeaSubmission) string {
	return fmt.Sprintf(
		"You are a startup analysis expert. Convert this user input into clean, structured format.\n\nUser Input:\n- Idea Name: %s\n- Problem: %s\n- Why Problem Exists: %s\n- Target Audience: %s\n- Solution: %s\n- Key Features: %s\n- Uniqueness: %s\n- Market/Industry: %s\n- Revenue Model: %s\n- Expected Users: %s\n- Region: %s\n- Extra Notes: %s\n\nReturn ONLY a JSON object (no markdown, no explanation).\n\n%s",
		in.IdeaName,
		in.Problem,
		in.WhyProblemExists,
		in.TargetAudience,
		in.Solution,
		in.KeyFeatures,
		in.Uniqueness,
		in.Market,
		in.RevenueModel,
		in.ExpectedUsers,
		in.Region,
		in.ExtraNotes,
		processInputSchemaPrompt,
	)
}

const competitorSchemaPrompt = `Required JSON schema (array):
[
  {
    "name": "Company Name",
    "url": "website url or empty string",
    "description": "what they do in 1-2 sentences",
    "founders": "founder names or Unknown",
    "revenue": "revenue info or Unknown",
    "region": "operating region or Unknown",
    "features": ["feature 1", "feature 2", "feature 3"]
  }
]`

func analyzeCompetitorsPrompt(searchResults []websearch.Hit, scraped []webscrape.Result) string {
	if len(searchResults) > 10 {
		searchResults = searchResults[:10]
	}
	if len(scraped) > 5 {
		scraped = scraped[:5]
	}
	return fmt.Sprintf(
		"Analyze this data and extract ONLY real competitor companies (not articles or blogs).\n\nSearch Results:\n%s\n\nScraped Websites:\n%s\n\nReturn ONLY a JSON array (no markdown, no explanation).\n\n%s\n\nExtract maximum %d real competitors. If info is missing, use \"Unknown\".",
		mustJSON(searchResults),
		mustJSON(scraped),
		competitorSchemaPrompt,
		MaxCompetitors,
	)
}

const summarySchemaPrompt = `Required JSON schema:
{
  "overview": "2-3 paragraph executive summary covering: the idea, market potential, competitive landscape",
  "feasibility_score": "int 1-100, be realistic",
  "market_readiness_score": "int 1-100, be realistic",
  "swot_analysis": {
    "strengths": ["strength 1", "strength 2", "strength 3", "strength 4"],
    "weaknesses": ["weakness 1", "weakness 2", "weakness 3", "weakness 4"],
    "opportunities": ["opportunity 1", "opportunity 2", "opportunity 3", "opportunity 4"],
    "threats": ["threat 1", "threat 2", "threat 3", "threat 4"]
  },
  "risk_analysis": ["risk 1 with impact", "risk 2 with impact", "risk 3 with impact", "risk 4 with impact", "risk 5 with impact"],
  "recommendations": ["actionable recommendation 1", "recommendation 2", "recommendation 3", "recommendation 4", "recommendation 5"],
  "competitive_advantage": "detailed paragraph on how to differentiate and win",
  "market_size_estimate": "estimated TAM/SAM/SOM with reasoning"
}`

func validationSummaryPrompt(processed ProcessedInput, competitors []CompetitorInfo, marketData []websearch.Hit) string {
	if len(marketData) > 5 {
		marketData = marketData[:5]
	}
	return fmt.Sprintf(
		"You are a startup validation expert with 20 years experience. Analyze this idea thoroughly.\n\nSTARTUP IDEA:\n%s\n\nCOMPETITORS:\n%s\n\nMARKET DATA:\n%s\n\nProvide a detailed, honest analysis. Return ONLY a JSON object (no markdown).\n\n%s\n\nBe thorough, specific, and actionable. Consider current market trends.",
		mustJSON(processed),
		mustJSON(competitors),
		mustJSON(marketData),
		summarySchemaPrompt,
	)
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
