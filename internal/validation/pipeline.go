package validation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcalder/venturelens/internal/llm"
	"github.com/mcalder/venturelens/internal/websearch"
	"github.com/mcalder/venturelens/internal/webscrape"
)

// Pipeline coordinates the validation workflow: normalize input, run
// web research, scrape competitor sites, and generate the summary.
// Individual steps degrade to documented fallbacks instead of failing
// the run.
type Pipeline struct {
	exec     *llm.Executor
	searcher websearch.Searcher
	scraper  webscrape.Scraper
	tracer   trace.Tracer
}

func NewPipeline(exec *llm.Executor, searcher websearch.Searcher, scraper webscrape.Scraper) *Pipeline {
	return &Pipeline{
		exec:     exec,
		searcher: searcher,
		scraper:  scraper,
		tracer:   otel.Tracer("venturelens/validation"),
	}
}

func (p *Pipeline) Run(ctx context.Context, input IdeaSubmission) (Report, error) {
	if err := input.Validate(); err != nil {
		return Report{}, err
	}
	ctx, span := p.tracer.Start(ctx, "validation.run",
		trace.WithAttributes(attribute.String("idea.name", input.IdeaName)))
	defer span.End()

	log.Printf("validation run_start idea=%q market=%q", input.IdeaName, input.Market)

	processed := p.processInput(ctx, input)

	competitorHits, solutionHits, marketHits := p.research(ctx, input)
	allHits := make([]websearch.Hit, 0, len(competitorHits)+len(solutionHits)+len(marketHits))
	allHits = append(allHits, competitorHits...)
	allHits = append(allHits, solutionHits...)
	allHits = append(allHits, marketHits...)

	urls := competitorURLs(competitorHits)
	scraped := []webscrape.Result{}
	if len(urls) > 0 {
		scrapeCtx, scrapeSpan := p.tracer.Start(ctx, "validation.scrape",
			trace.WithAttributes(attribute.Int("url.count", len(urls))))
		scraped = webscrape.ScrapeMultiple(scrapeCtx, p.scraper, urls, 5)
		scrapeSpan.End()
	} else {
		log.Printf("validation scrape_skipped reason=%q", "no http competitor urls")
	}

	competitors := p.analyzeCompetitors(ctx, allHits, scraped)
	summary := p.summarize(ctx, processed, competitors, marketHits)

	scrapedOK := 0
	for _, r := range scraped {
		if r.Success {
			scrapedOK++
		}
	}

	report := Report{
		UserInput:      input,
		ProcessedInput: processed,
		WebResearch: WebResearch{
			SearchResults: allHits,
			ScrapedPages:  scraped,
			Competitors:   competitors,
			MarketInsights: MarketInsights{
				TotalSearches:     len(allHits),
				CompetitorCount:   len(competitors),
				WebsitesScraped:   scrapedOK,
				MarketDataSources: len(marketHits),
			},
		},
		FinalSummary: summary,
		CreatedAt:    time.Now().UTC(),
	}

	log.Printf("validation run_done idea=%q competitors=%d feasibility=%d market_readiness=%d",
		input.IdeaName, len(competitors), summary.FeasibilityScore, summary.MarketReadinessScore)
	return report, nil
}

func (p *Pipeline) processInput(ctx context.Context, input IdeaSubmission) ProcessedInput {
	ctx, span := p.tracer.Start(ctx, "validation.process_input")
	defer span.End()

	out := ProcessedInput{}
	_, err := p.exec.RunJSON(ctx, "process_input", processInputPrompt(input), &out, func() error {
		if strings.TrimSpace(out.IdeaName) == "" {
			return fmt.Errorf("idea_name must not be empty")
		}
		if strings.TrimSpace(out.Problem) == "" {
			return fmt.Errorf("problem must not be empty")
		}
		return nil
	})
	if err != nil {
		log.Printf("validation process_input_fallback err=%q", err.Error())
		return fallbackProcessed(input)
	}
	return out
}

func (p *Pipeline) research(ctx context.Context, input IdeaSubmission) (competitors, solutions, market []websearch.Hit) {
	ctx, span := p.tracer.Start(ctx, "validation.research")
	defer span.End()

	competitors = websearch.SafeSearch(ctx, p.searcher, websearch.CompetitorQuery(input.IdeaName, input.Market), 10)
	solutions = websearch.SafeSearch(ctx, p.searcher, websearch.SolutionsQuery(input.Problem, input.Market), 10)
	market = websearch.SafeSearch(ctx, p.searcher, websearch.MarketSizeQuery(input.Market, input.Region), 5)

	span.SetAttributes(
		attribute.Int("hits.competitors", len(competitors)),
		attribute.Int("hits.solutions", len(solutions)),
		attribute.Int("hits.market", len(market)),
	)
	log.Printf("validation research_done competitors=%d solutions=%d market=%d", len(competitors), len(solutions), len(market))
	return competitors, solutions, market
}

// competitorURLs picks scrape targets from the top competitor results.
// Only absolute http(s) links qualify.
func competitorURLs(hits []websearch.Hit) []string {
	if len(hits) > 5 {
		hits = hits[:5]
	}
	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		if strings.HasPrefix(h.Link, "http") {
			urls = append(urls, h.Link)
		}
	}
	return urls
}

func (p *Pipeline) analyzeCompetitors(ctx context.Context, hits []websearch.Hit, scraped []webscrape.Result) []CompetitorInfo {
	ctx, span := p.tracer.Start(ctx, "validation.analyze_competitors")
	defer span.End()

	out := []CompetitorInfo{}
	_, err := p.exec.RunJSON(ctx, "analyze_competitors", analyzeCompetitorsPrompt(hits, scraped), &out, nil)
	if err != nil {
		log.Printf("validation analyze_competitors_fallback err=%q", err.Error())
		return []CompetitorInfo{}
	}
	if len(out) > MaxCompetitors {
		out = out[:MaxCompetitors]
	}
	for i := range out {
		if out[i].Founders == "" {
			out[i].Founders = "Unknown"
		}
		if out[i].Revenue == "" {
			out[i].Revenue = "Unknown"
		}
		if out[i].Region == "" {
			out[i].Region = "Unknown"
		}
		if out[i].Features == nil {
			out[i].Features = []string{}
		}
	}
	return out
}

func (p *Pipeline) summarize(ctx context.Context, processed ProcessedInput, competitors []CompetitorInfo, marketHits []websearch.Hit) ValidationSummary {
	ctx, span := p.tracer.Start(ctx, "validation.summarize")
	defer span.End()

	out := ValidationSummary{}
	_, err := p.exec.RunJSON(ctx, "validation_summary", validationSummaryPrompt(processed, competitors, marketHits), &out, func() error {
		return validateSummary(out)
	})
	if err != nil {
		log.Printf("validation summary_fallback err=%q", err.Error())
		return fallbackSummary()
	}
	if strings.TrimSpace(out.MarketSizeEstimate) == "" {
		out.MarketSizeEstimate = "Market size estimation unavailable based on current data."
	}
	return out
}

func validateSummary(s ValidationSummary) error {
	if strings.TrimSpace(s.Overview) == "" {
		return fmt.Errorf("overview required")
	}
	if s.FeasibilityScore < 1 || s.FeasibilityScore > 100 {
		return fmt.Errorf("feasibility_score out of range")
	}
	if s.MarketReadinessScore < 1 || s.MarketReadinessScore > 100 {
		return fmt.Errorf("market_readiness_score out of range")
	}
	lists := []struct {
		name  string
		items []string
	}{
		{"strengths", s.SWOTAnalysis.Strengths},
		{"weaknesses", s.SWOTAnalysis.Weaknesses},
		{"opportunities", s.SWOTAnalysis.Opportunities},
		{"threats", s.SWOTAnalysis.Threats},
		{"risk_analysis", s.RiskAnalysis},
		{"recommendations", s.Recommendations},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			return fmt.Errorf("%s must not be empty", l.name)
		}
	}
	return nil
}
