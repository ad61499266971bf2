package comments

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mcalder/venturelens/internal/llm"
	"github.com/mcalder/venturelens/internal/llmjson"
)

// maxIdeaFieldChars bounds each prior-idea field embedded in the
// analysis prompt.
const maxIdeaFieldChars = 500

// PriorIdea is a previously saved idea used as extra context for the
// analysis.
type PriorIdea struct {
	IdeaName    string `json:"idea_name"`
	Problem     string `json:"problem"`
	Solution    string `json:"solution"`
	KeyFeatures string `json:"key_features"`
	Uniqueness  string `json:"uniqueness"`
	CreatedAt   string `json:"created_at"`
}

type CompetitorNote struct {
	Name            string `json:"name"`
	Differentiation string `json:"differentiation"`
	ApproxRevenue   string `json:"approx_revenue"`
}

// Analysis is the structured read on how an audience reacted to a
// posted idea.
type Analysis struct {
	Idea                string           `json:"idea"`
	ProblemPain         string           `json:"problem_pain"`
	Competitors         []CompetitorNote `json:"competitors"`
	YourDifferentiation string           `json:"your_differentiation"`
	Strengths           []string         `json:"strengths"`
	Weaknesses          []string         `json:"weaknesses"`
	Pros                []string         `json:"pros"`
	Cons                []string         `json:"cons"`
	ValidationScore     int              `json:"validation_score"`
	EntryBarrierScore   int              `json:"entry_barrier_score"`
	Summary             string           `json:"summary"`
	Advice              string           `json:"advice"`
}

func fallbackAnalysis() Analysis {
	a := Analysis{Summary: "Model did not return valid JSON."}
	a.normalize()
	return a
}

// normalize replaces nil slices so the analysis marshals with empty
// arrays rather than nulls.
func (a *Analysis) normalize() {
	if a.Competitors == nil {
		a.Competitors = []CompetitorNote{}
	}
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Weaknesses == nil {
		a.Weaknesses = []string{}
	}
	if a.Pros == nil {
		a.Pros = []string{}
	}
	if a.Cons == nil {
		a.Cons = []string{}
	}
}

type Analyzer struct {
	exec *llm.Executor
}

func NewAnalyzer(exec *llm.Executor) *Analyzer {
	return &Analyzer{exec: exec}
}

// Analyze reads the audience reaction to a post. Transport failures
// return an error; a model that never produces parseable JSON degrades
// to a marked fallback analysis.
func (an *Analyzer) Analyze(ctx context.Context, post Post, priorIdeas []PriorIdea) (Analysis, error) {
	raw, _, err := an.exec.RunText(ctx, "comment_analysis", analysisPrompt(post, priorIdeas))
	if err != nil {
		return Analysis{}, err
	}

	out := Analysis{}
	if err := llmjson.Decode(raw, &out); err != nil {
		log.Printf("comments analysis_parse_fallback err=%q response_chars=%d", err.Error(), len(raw))
		return fallbackAnalysis(), nil
	}
	out.normalize()
	return out, nil
}

// TopComments returns the highest-scored comments, preserving original
// order among equals.
func TopComments(comments []Comment, n int) []Comment {
	sorted := make([]Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

const analysisSchemaPrompt = `Required JSON schema:
{
  "idea": "1-2 sentences summarizing what this idea/app is about, in simple words.",
  "problem_pain": "1 short paragraph describing the painful problem it is trying to solve, based on the post and comments.",
  "competitors": [{"name":"", "differentiation":"", "approx_revenue":""}],
  "your_differentiation": "",
  "strengths": [],
  "weaknesses": [],
  "pros": [],
  "cons": [],
  "validation_score": 0,
  "entry_barrier_score": 0,
  "summary": "",
  "advice": ""
}`

func analysisPrompt(post Post, priorIdeas []PriorIdea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert startup + product validator.\n\n")
	fmt.Fprintf(&b, "The creator posted this idea:\n\nTITLE:\n\"\"\"%s\"\"\"\n\n", post.Title)
	fmt.Fprintf(&b, "POST BODY (if any):\n\"\"\"%s\"\"\"\n\n", post.Body)
	fmt.Fprintf(&b, "Here are the TOP 5 most important real user comments reacting to this post:\n\n\"\"\"%s\"\"\"\n\n", commentsBlock(post))
	fmt.Fprintf(&b, "USER'S PAST IDEAS (from their account) - use these as extra context for tone, past themes, and pivots:\n\"\"\"%s\"\"\"\n\n", ideasBlock(priorIdeas))
	fmt.Fprintf(&b, "Your job:\nUse ONLY the information you can reasonably infer from the post, comments, and the user's past ideas.\n")
	fmt.Fprintf(&b, "If you need to guess about competitors or revenue, keep it clearly approximate and plausible (not super specific or made-up nonsense).\n\n")
	fmt.Fprintf(&b, "%s\n\n", analysisSchemaPrompt)
	fmt.Fprintf(&b, "Rules:\n")
	fmt.Fprintf(&b, "- validation_score: 0 = terrible signal, 100 = insanely strong signal.\n")
	fmt.Fprintf(&b, "- entry_barrier_score: 0 = very easy for anyone to copy, 100 = very hard to copy / strong moat.\n")
	fmt.Fprintf(&b, "- If comments are mixed or unclear, use a mid score (around 40-60) and say why.\n")
	fmt.Fprintf(&b, "- Output ONLY valid JSON. No extra text, no markdown, no commentary.\n")
	return b.String()
}

func commentsBlock(post Post) string {
	selected := TopComments(post.Comments, 5)
	if len(selected) == 0 {
		return "No comments."
	}
	var b strings.Builder
	for i, c := range selected {
		author := c.Author
		if post.Platform == PlatformTwitter {
			author = fmt.Sprintf("%s (@%s)", c.Author, c.Username)
		}
		fmt.Fprintf(&b, "%d. %s (score/likes: %d)\n%s\n\n", i+1, author, c.Score, c.Body)
	}
	return strings.TrimRight(b.String(), "\n")
}

func ideasBlock(ideas []PriorIdea) string {
	if len(ideas) > 3 {
		ideas = ideas[:3]
	}
	if len(ideas) == 0 {
		return "No saved ideas for this user."
	}
	var b strings.Builder
	for i, it := range ideas {
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, TruncateAtWord(it.IdeaName, maxIdeaFieldChars))
		fmt.Fprintf(&b, "   Created: %s\n", it.CreatedAt)
		fmt.Fprintf(&b, "   Problem: %s\n", TruncateAtWord(it.Problem, maxIdeaFieldChars))
		fmt.Fprintf(&b, "   Solution: %s\n", TruncateAtWord(it.Solution, maxIdeaFieldChars))
		fmt.Fprintf(&b, "   Key features: %s\n", TruncateAtWord(it.KeyFeatures, maxIdeaFieldChars))
		fmt.Fprintf(&b, "   Uniqueness: %s\n", TruncateAtWord(it.Uniqueness, maxIdeaFieldChars))
	}
	return strings.TrimRight(b.String(), "\n")
}

// TruncateAtWord shortens s to at most max characters, cutting at the
// last word boundary and appending an ellipsis.
func TruncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
