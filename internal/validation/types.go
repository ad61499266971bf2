// Package validation runs the idea validation workflow: normalize the
// submitted idea, research competitors and market signals on the web,
// and produce a scored summary report.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcalder/venturelens/internal/websearch"
	"github.com/mcalder/venturelens/internal/webscrape"
)

// IdeaSubmission is the raw intake form for a startup idea.
type IdeaSubmission struct {
	IdeaName         string `json:"idea_name"`
	Problem          string `json:"problem"`
	WhyProblemExists string `json:"why_problem_exists"`
	TargetAudience   string `json:"target_audience"`
	Solution         string `json:"solution"`
	KeyFeatures      string `json:"key_features"`
	Uniqueness       string `json:"uniqueness"`
	Market           string `json:"market"`
	RevenueModel     string `json:"revenue_model"`
	ExpectedUsers    string `json:"expected_users"`
	Region           string `json:"region"`
	ExtraNotes       string `json:"extra_notes"`
}

func (in IdeaSubmission) Validate() error {
	required := []struct {
		name, value string
	}{
		{"idea_name", in.IdeaName},
		{"problem", in.Problem},
		{"market", in.Market},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// ProcessedInput is the normalized form of a submission.
type ProcessedInput struct {
	IdeaName          string `json:"idea_name"`
	Problem           string `json:"problem"`
	Solution          string `json:"solution"`
	TargetAudience    string `json:"target_audience"`
	Uniqueness        string `json:"uniqueness"`
	Market            string `json:"market"`
	RevenueModel      string `json:"revenue_model"`
	Region            string `json:"region"`
	AdditionalContext string `json:"additional_context"`
}

// fallbackProcessed projects the raw submission when normalization
// fails, so the pipeline always has structured input to work with.
func fallbackProcessed(in IdeaSubmission) ProcessedInput {
	return ProcessedInput{
		IdeaName:          in.IdeaName,
		Problem:           in.Problem,
		Solution:          in.Solution,
		TargetAudience:    in.TargetAudience,
		Uniqueness:        in.Uniqueness,
		Market:            in.Market,
		RevenueModel:      in.RevenueModel,
		Region:            in.Region,
		AdditionalContext: in.WhyProblemExists + " " + in.KeyFeatures,
	}
}

type CompetitorInfo struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Founders    string   `json:"founders"`
	Revenue     string   `json:"revenue"`
	Region      string   `json:"region"`
	Features    []string `json:"features"`
}

// MaxCompetitors bounds the extracted competitor list.
const MaxCompetitors = 10

type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

type ValidationSummary struct {
	Overview             string   `json:"overview"`
	FeasibilityScore     int      `json:"feasibility_score"`
	MarketReadinessScore int      `json:"market_readiness_score"`
	SWOTAnalysis         SWOT     `json:"swot_analysis"`
	RiskAnalysis         []string `json:"risk_analysis"`
	Recommendations      []string `json:"recommendations"`
	CompetitiveAdvantage string   `json:"competitive_advantage"`
	MarketSizeEstimate   string   `json:"market_size_estimate"`
}

// fallbackSummary keeps the report renderable when summary generation
// fails outright.
func fallbackSummary() ValidationSummary {
	return ValidationSummary{
		Overview:             "Analysis could not be completed. Please try again.",
		FeasibilityScore:     50,
		MarketReadinessScore: 50,
		SWOTAnalysis: SWOT{
			Strengths:     []string{"Unable to analyze"},
			Weaknesses:    []string{"Unable to analyze"},
			Opportunities: []string{"Unable to analyze"},
			Threats:       []string{"Unable to analyze"},
		},
		RiskAnalysis:         []string{"Unable to analyze risks"},
		Recommendations:      []string{"Please try validation again"},
		CompetitiveAdvantage: "Unable to analyze",
		MarketSizeEstimate:   "Unable to estimate",
	}
}

type MarketInsights struct {
	TotalSearches     int `json:"total_searches"`
	CompetitorCount   int `json:"competitor_count"`
	WebsitesScraped   int `json:"websites_scraped"`
	MarketDataSources int `json:"market_data_sources"`
}

type WebResearch struct {
	SearchResults  []websearch.Hit    `json:"serper_results"`
	ScrapedPages   []webscrape.Result `json:"firecrawl_results"`
	Competitors    []CompetitorInfo   `json:"competitors"`
	MarketInsights MarketInsights     `json:"market_insights"`
}

type Report struct {
	ID             string            `json:"id,omitempty"`
	UserInput      IdeaSubmission    `json:"user_input"`
	ProcessedInput ProcessedInput    `json:"processed_input"`
	WebResearch    WebResearch       `json:"web_research"`
	FinalSummary   ValidationSummary `json:"final_summary"`
	CreatedAt      time.Time         `json:"created_at"`
}
