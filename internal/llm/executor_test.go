package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func (s *scriptedGenerator) ModelName() string { return "test-model" }

func TestRunJSONSucceedsFirstAttempt(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{`{"name":"x"}`}}
	exec := NewExecutor(gen)

	var out struct {
		Name string `json:"name"`
	}
	m, err := exec.RunJSON(context.Background(), "s", "prompt", &out, nil)
	if err != nil {
		t.Fatalf("RunJSON: %v", err)
	}
	if out.Name != "x" || m.Attempts != 1 || m.ContentRetries != 0 {
		t.Fatalf("unexpected result: %+v metrics=%+v", out, m)
	}
}

func TestRunJSONRetriesOnBadJSONWithFeedback(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json at all", `{"name":"y"}`}}
	exec := NewExecutor(gen)

	var out struct {
		Name string `json:"name"`
	}
	m, err := exec.RunJSON(context.Background(), "s", "prompt", &out, nil)
	if err != nil {
		t.Fatalf("RunJSON: %v", err)
	}
	if out.Name != "y" || m.Attempts != 2 || m.ContentRetries != 1 {
		t.Fatalf("unexpected result: %+v metrics=%+v", out, m)
	}
	if !strings.Contains(gen.prompts[1], "not valid JSON") {
		t.Fatalf("second prompt missing feedback: %q", gen.prompts[1])
	}
}

func TestRunJSONValidationFeedback(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{`{"score":200}`, `{"score":80}`}}
	exec := NewExecutor(gen)

	var out struct {
		Score int `json:"score"`
	}
	m, err := exec.RunJSON(context.Background(), "s", "prompt", &out, func() error {
		if out.Score > 100 {
			return errors.New("score out of range")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunJSON: %v", err)
	}
	if out.Score != 80 || m.ContentRetries != 1 {
		t.Fatalf("unexpected result: %+v metrics=%+v", out, m)
	}
	if !strings.Contains(gen.prompts[1], "score out of range") {
		t.Fatalf("second prompt missing validation feedback: %q", gen.prompts[1])
	}
}

func TestRunJSONGivesUpAfterThreeAttempts(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"x", "y", "z"}}
	exec := NewExecutor(gen)

	var out map[string]any
	m, err := exec.RunJSON(context.Background(), "s", "prompt", &out, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if m.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", m.Attempts)
	}
}

func TestRunJSONClientErrorNotRetried(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("status code: 401 unauthorized")}}
	exec := NewExecutor(gen)

	var out map[string]any
	m, err := exec.RunJSON(context.Background(), "s", "prompt", &out, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if m.Attempts != 1 {
		t.Fatalf("client error should not retry, got %d attempts", m.Attempts)
	}
}

func TestRunTextRetriesEmptyResponses(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"", "a story"}}
	exec := NewExecutor(gen)

	text, m, err := exec.RunText(context.Background(), "s", "prompt")
	if err != nil {
		t.Fatalf("RunText: %v", err)
	}
	if text != "a story" || m.Attempts != 2 {
		t.Fatalf("unexpected result: %q metrics=%+v", text, m)
	}
}

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		err  error
		want failureClass
	}{
		{context.DeadlineExceeded, failureTimeout},
		{errors.New("status code: 429 too many requests"), failureRateLimit},
		{errors.New("status code: 503"), failureServer},
		{errors.New("status code: 400 bad request"), failureClient},
		{errors.New("connection reset by peer"), failureServer},
	}
	for _, c := range cases {
		if got := classifyTransportError(c.err); got != c.want {
			t.Fatalf("classifyTransportError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
