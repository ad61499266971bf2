package validation

import (
	"fmt"
	"strings"
	"time"
)

// ReportMarkdown renders a validation report for display or export.
func ReportMarkdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Startup Idea Validation Report\n\n")
	fmt.Fprintf(&b, "- Idea: %s\n", sanitize(r.ProcessedInput.IdeaName))
	fmt.Fprintf(&b, "- Market: %s\n", sanitize(r.ProcessedInput.Market))
	fmt.Fprintf(&b, "- Region: %s\n", sanitize(r.ProcessedInput.Region))
	fmt.Fprintf(&b, "- Date: %s\n\n", r.CreatedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Overview\n\n%s\n\n", strings.TrimSpace(r.FinalSummary.Overview))

	fmt.Fprintf(&b, "## Scores\n\n")
	fmt.Fprintf(&b, "| Dimension | Score |\n|-----------|-------|\n")
	fmt.Fprintf(&b, "| Feasibility | %d/100 |\n", r.FinalSummary.FeasibilityScore)
	fmt.Fprintf(&b, "| Market Readiness | %d/100 |\n\n", r.FinalSummary.MarketReadinessScore)

	fmt.Fprintf(&b, "## SWOT Analysis\n\n")
	writeList(&b, "Strengths", r.FinalSummary.SWOTAnalysis.Strengths)
	writeList(&b, "Weaknesses", r.FinalSummary.SWOTAnalysis.Weaknesses)
	writeList(&b, "Opportunities", r.FinalSummary.SWOTAnalysis.Opportunities)
	writeList(&b, "Threats", r.FinalSummary.SWOTAnalysis.Threats)

	writeList(&b, "Risk Analysis", r.FinalSummary.RiskAnalysis)
	writeList(&b, "Recommendations", r.FinalSummary.Recommendations)

	fmt.Fprintf(&b, "### Competitive Advantage\n\n%s\n\n", strings.TrimSpace(r.FinalSummary.CompetitiveAdvantage))
	fmt.Fprintf(&b, "### Market Size Estimate\n\n%s\n\n", strings.TrimSpace(r.FinalSummary.MarketSizeEstimate))

	if len(r.WebResearch.Competitors) > 0 {
		fmt.Fprintf(&b, "## Competitors\n\n")
		fmt.Fprintf(&b, "| Name | Region | Revenue | Description |\n|------|--------|---------|-------------|\n")
		for _, c := range r.WebResearch.Competitors {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				sanitizeCell(c.Name), sanitizeCell(c.Region), sanitizeCell(c.Revenue), sanitizeCell(c.Description))
		}
		fmt.Fprintf(&b, "\n")
	}

	mi := r.WebResearch.MarketInsights
	fmt.Fprintf(&b, "## Research Coverage\n\n")
	fmt.Fprintf(&b, "- Search results analyzed: %d\n", mi.TotalSearches)
	fmt.Fprintf(&b, "- Competitors identified: %d\n", mi.CompetitorCount)
	fmt.Fprintf(&b, "- Websites scraped: %d\n", mi.WebsitesScraped)
	fmt.Fprintf(&b, "- Market data sources: %d\n", mi.MarketDataSources)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(items) == 0 {
		fmt.Fprintf(b, "- None identified\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", sanitize(item))
	}
	fmt.Fprintf(b, "\n")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	s = sanitize(s)
	return strings.ReplaceAll(s, "|", "\\|")
}
