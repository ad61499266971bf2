// Package finalreport combines the latest validation summary and the
// latest comment analysis into a single build/no-build verdict.
package finalreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/llm"
	"github.com/mcalder/venturelens/internal/llmjson"
)

// ErrMissingPrerequisite is returned when the user has not yet produced
// both inputs the final report is built from.
var ErrMissingPrerequisite = errors.New("both AI summary and comment summary are required")

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Explain  string `json:"explain"`
}

type Verdict struct {
	CanBuild string `json:"can_build"`
	Headline string `json:"headline"`
}

type Report struct {
	Idea                string        `json:"idea"`
	ProblemFaced        string        `json:"problem_faced"`
	YourSolution        string        `json:"your_solution"`
	QuestionsAndAnswers map[string]QA `json:"questions_and_answers"`
	FinalVerdict        Verdict       `json:"final_verdict"`
	Recommendations     []string      `json:"recommendations"`
	FinalThoughts       string        `json:"final_thoughts"`
	ValidationScore     int           `json:"validation_score"`
}

// rawReport keeps the score nullable so a missing field can be told
// apart from an explicit zero.
type rawReport struct {
	Report
	ValidationScore *float64 `json:"validation_score"`
}

// Status reports which prerequisite documents exist for a user.
type Status struct {
	HasAISummary      bool           `json:"has_ai_summary"`
	AISummary         map[string]any `json:"ai_summary,omitempty"`
	HasCommentSummary bool           `json:"has_comment_summary"`
	CommentSummary    map[string]any `json:"comment_summary,omitempty"`
}

// Result is the generated report plus its persistence metadata.
type Result struct {
	Report            Report    `json:"generated_report"`
	ReportID          string    `json:"report_id"`
	AISummaryRef      string    `json:"ai_summary_ref"`
	CommentSummaryRef string    `json:"comment_summary_ref"`
	CreatedAt         time.Time `json:"created_at"`
}

type Generator struct {
	exec  *llm.Executor
	store docstore.Store
}

func NewGenerator(exec *llm.Executor, store docstore.Store) *Generator {
	return &Generator{exec: exec, store: store}
}

func (g *Generator) Status(ctx context.Context, uid string) (Status, error) {
	status := Status{}
	ai, err := g.latest(ctx, uid, docstore.SubAISummaries)
	if err != nil && err != docstore.ErrNotFound {
		return status, err
	}
	if err == nil {
		status.HasAISummary = true
		status.AISummary = ai.Body
	}
	cs, err := g.latest(ctx, uid, docstore.SubCommentSummaries)
	if err != nil && err != docstore.ErrNotFound {
		return status, err
	}
	if err == nil {
		status.HasCommentSummary = true
		status.CommentSummary = cs.Body
	}
	return status, nil
}

func (g *Generator) Generate(ctx context.Context, uid string) (Result, error) {
	ai, aiErr := g.latest(ctx, uid, docstore.SubAISummaries)
	cs, csErr := g.latest(ctx, uid, docstore.SubCommentSummaries)
	if aiErr == docstore.ErrNotFound || csErr == docstore.ErrNotFound {
		return Result{}, ErrMissingPrerequisite
	}
	if aiErr != nil {
		return Result{}, aiErr
	}
	if csErr != nil {
		return Result{}, csErr
	}

	raw, _, err := g.exec.RunText(ctx, "final_report", buildPrompt(ai.Body, cs.Body))
	if err != nil {
		return Result{}, err
	}
	var parsed rawReport
	if err := llmjson.Decode(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse final report: %w", err)
	}

	report := parsed.Report
	if parsed.ValidationScore == nil {
		report.ValidationScore = fallbackScore(report)
	} else {
		report.ValidationScore = int(*parsed.ValidationScore)
	}
	report.ValidationScore = clampScore(report.ValidationScore)
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}

	result := Result{
		Report:            report,
		ReportID:          docstore.NewID(),
		AISummaryRef:      refID(ai),
		CommentSummaryRef: refID(cs),
		CreatedAt:         time.Now().UTC(),
	}

	reportBody := map[string]any{}
	b, _ := json.Marshal(report)
	_ = json.Unmarshal(b, &reportBody)
	_, err = g.store.Put(ctx, docstore.UserCollection(uid, docstore.SubFinalReports), result.ReportID, map[string]any{
		"report_id":           result.ReportID,
		"created_at":          result.CreatedAt.Format(time.RFC3339Nano),
		"ai_summary_ref":      result.AISummaryRef,
		"comment_summary_ref": result.CommentSummaryRef,
		"generated_report":    reportBody,
	})
	if err != nil {
		log.Printf("finalreport save_failed uid=%q err=%q", uid, err.Error())
	}
	return result, nil
}

func (g *Generator) latest(ctx context.Context, uid, sub string) (docstore.Document, error) {
	return docstore.Latest(ctx, g.store, docstore.UserCollection(uid, sub), "created_at")
}

// refID prefers the document's own summary_id field over the storage ID.
func refID(doc docstore.Document) string {
	if v, ok := doc.Body["summary_id"].(string); ok && v != "" {
		return v
	}
	return doc.ID
}

// fallbackScore derives a score from the yes/no answers when the model
// omits one: yes-ratio scaled to 100, plus 15 (capped) for a build
// verdict.
func fallbackScore(r Report) int {
	total, yes := 0, 0
	for _, qa := range r.QuestionsAndAnswers {
		total++
		if strings.EqualFold(strings.TrimSpace(qa.Answer), "yes") {
			yes++
		}
	}
	if total == 0 {
		return 50
	}
	base := float64(yes) / float64(total) * 100
	if strings.EqualFold(r.FinalVerdict.CanBuild, "yes") {
		base = math.Min(100, base+15)
	}
	return int(base)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func buildPrompt(aiSummary, commentSummary map[string]any) string {
	aiText := mustJSON(aiSummary["final_summary"])
	csText := mustJSON(commentSummary["analysis"])

	var b strings.Builder
	fmt.Fprintf(&b, "You are a brutally honest startup/product validator. You analyze ideas based on market signals, problem-solution fit, and user feedback.\n\n")
	fmt.Fprintf(&b, "AI SUMMARY (structured):\n\"\"\"%s\"\"\"\n\n", aiText)
	fmt.Fprintf(&b, "COMMENT SUMMARY (what real users said / analysis):\n\"\"\"%s\"\"\"\n\n", csText)
	fmt.Fprintf(&b, "Return EXACTLY a JSON object (no extra text) with these fields:\n\n%s\n\n", reportSchemaPrompt)
	fmt.Fprintf(&b, "SCORING GUIDELINES:\n")
	fmt.Fprintf(&b, "- 0-30: Not ready - Major red flags, rethink problem or market\n")
	fmt.Fprintf(&b, "- 31-50: Weak - Significant issues, needs major changes\n")
	fmt.Fprintf(&b, "- 51-70: Promising - Has potential but needs refinement\n")
	fmt.Fprintf(&b, "- 71-85: Strong - Good signals, build MVP and test\n")
	fmt.Fprintf(&b, "- 86-100: Excellent - Strong market signals, build immediately\n\n")
	fmt.Fprintf(&b, "RULES FOR SCORING:\n")
	fmt.Fprintf(&b, "1. Start with 50 points as baseline\n")
	fmt.Fprintf(&b, "2. Add +10 for each \"yes\" answer (5 questions = max +50)\n")
	fmt.Fprintf(&b, "3. Add +20 if comment analysis shows genuine excitement/validation\n")
	fmt.Fprintf(&b, "4. Subtract -15 if comment analysis shows significant skepticism\n")
	fmt.Fprintf(&b, "5. Add +10 if problem is clearly defined and painful\n")
	fmt.Fprintf(&b, "6. Subtract -10 if solution seems overly complex\n")
	fmt.Fprintf(&b, "7. Add +5 for each specific positive mention in comments\n")
	fmt.Fprintf(&b, "8. Subtract -5 for each major criticism in comments\n")
	fmt.Fprintf(&b, "9. Adjust based on market size/opportunity mentioned\n")
	fmt.Fprintf(&b, "10. Final score should be 0-100\n\n")
	fmt.Fprintf(&b, "final_verdict.can_build RULES:\n")
	fmt.Fprintf(&b, "- \"yes\" if score >= 60 AND at least 3 of 5 questions are \"yes\"\n")
	fmt.Fprintf(&b, "- \"no\" otherwise\n\n")
	fmt.Fprintf(&b, "Be concise, brutal, and data-driven in your assessment.\n")
	return b.String()
}

const reportSchemaPrompt = `{
  "idea": "1-2 sentence plain summary of the idea",
  "problem_faced": "1 short paragraph describing the problem this idea tries to solve",
  "your_solution": "1 short paragraph describing the proposed solution",
  "questions_and_answers": {
    "1": {"question":"Does this idea really solve the problem?","answer":"yes/no","explain":"1 short sentence"},
    "2": {"question":"Can you market this easily via social media?","answer":"yes/no","explain":"1 short sentence"},
    "3": {"question":"Will users pay for this product?","answer":"yes/no","explain":"1 short sentence"},
    "4": {"question":"Is the problem painful enough for users to seek a solution?","answer":"yes/no","explain":"1 short sentence"},
    "5": {"question":"Based on comments, is there genuine interest or excitement?","answer":"yes/no","explain":"1 short sentence"}
  },
  "final_verdict": {"can_build": "yes or no", "headline":"SHORT verdict headline (e.g. STRONG SIGNAL or NEEDS VALIDATION)"},
  "recommendations": ["Three concise recommendations to improve the idea (3 items)"],
  "final_thoughts": "One paragraph final thoughts including execution advice and 3 quick execution tips.",
  "validation_score": 0
}`

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}
