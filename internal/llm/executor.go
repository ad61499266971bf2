package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/mcalder/venturelens/internal/llmjson"
)

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

// StageError tags a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

type AttemptMetrics struct {
	Attempts       int
	ContentRetries int
}

// Executor wraps a TextGenerator with bounded retries. Transport
// failures back off and retry; malformed or invalid JSON retries with
// corrective feedback appended to the prompt.
type Executor struct {
	gen TextGenerator
}

func NewExecutor(gen TextGenerator) *Executor {
	return &Executor{gen: gen}
}

func (e *Executor) ModelName() string {
	if e == nil || e.gen == nil {
		return ""
	}
	return e.gen.ModelName()
}

// RunJSON prompts for structured output, decodes into out, and applies
// the caller's validation. Up to 3 attempts.
func (e *Executor) RunJSON(ctx context.Context, stageName, prompt string, out any, validate func() error) (AttemptMetrics, error) {
	metrics := AttemptMetrics{}
	feedback := ""
	for attempt := 1; attempt <= 3; attempt++ {
		metrics.Attempts = attempt
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		attemptStart := time.Now()
		log.Printf("llm attempt_start stage=%s attempt=%d", stageName, attempt)
		raw, err := e.gen.Generate(ctx, fullPrompt)
		if err != nil {
			class := classifyTransportError(err)
			log.Printf("llm attempt_transport_error stage=%s attempt=%d class=%d elapsed_ms=%d err=%q", stageName, attempt, class, time.Since(attemptStart).Milliseconds(), err.Error())
			if class == failureTimeout || class == failureRateLimit || class == failureServer {
				if attempt < 3 {
					time.Sleep(backoffDelay(attempt))
					continue
				}
			}
			return metrics, fmt.Errorf("%s transport failure: %w", stageName, err)
		}

		if err := llmjson.Decode(raw, out); err != nil {
			log.Printf("llm attempt_json_error stage=%s attempt=%d elapsed_ms=%d err=%q", stageName, attempt, time.Since(attemptStart).Milliseconds(), err.Error())
			if attempt < 3 {
				metrics.ContentRetries++
				feedback = "Your previous response was not valid JSON. Return valid JSON only."
				continue
			}
			return metrics, fmt.Errorf("%s failed json parse: %w", stageName, err)
		}
		if validate != nil {
			if err := validate(); err != nil {
				log.Printf("llm attempt_validation_error stage=%s attempt=%d elapsed_ms=%d err=%q", stageName, attempt, time.Since(attemptStart).Milliseconds(), err.Error())
				if attempt < 3 {
					metrics.ContentRetries++
					feedback = fmt.Sprintf("Your response failed validation: %s. Fix and return valid JSON only.", err)
					continue
				}
				return metrics, fmt.Errorf("%s failed validation: %w", stageName, err)
			}
		}
		log.Printf("llm attempt_success stage=%s attempt=%d elapsed_ms=%d response_chars=%d", stageName, attempt, time.Since(attemptStart).Milliseconds(), len(raw))
		return metrics, nil
	}
	return metrics, fmt.Errorf("%s failed after retries", stageName)
}

// RunText prompts for free-form text. Retries transport failures and
// empty responses only.
func (e *Executor) RunText(ctx context.Context, stageName, prompt string) (string, AttemptMetrics, error) {
	metrics := AttemptMetrics{}
	for attempt := 1; attempt <= 3; attempt++ {
		metrics.Attempts = attempt
		attemptStart := time.Now()
		raw, err := e.gen.Generate(ctx, prompt)
		if err != nil {
			class := classifyTransportError(err)
			log.Printf("llm attempt_transport_error stage=%s attempt=%d class=%d elapsed_ms=%d err=%q", stageName, attempt, class, time.Since(attemptStart).Milliseconds(), err.Error())
			if class == failureTimeout || class == failureRateLimit || class == failureServer {
				if attempt < 3 {
					time.Sleep(backoffDelay(attempt))
					continue
				}
			}
			return "", metrics, fmt.Errorf("%s transport failure: %w", stageName, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if attempt < 3 {
				metrics.ContentRetries++
				continue
			}
			return "", metrics, fmt.Errorf("%s failed: empty response", stageName)
		}
		log.Printf("llm attempt_success stage=%s attempt=%d elapsed_ms=%d response_chars=%d", stageName, attempt, time.Since(attemptStart).Milliseconds(), len(raw))
		return raw, metrics, nil
	}
	return "", metrics, fmt.Errorf("%s failed after retries", stageName)
}

func classifyTransportError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	m := statusCodeRe.FindStringSubmatch(msg)
	if len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "status 429"), strings.Contains(msg, "rate limit"):
		return failureRateLimit
	case strings.Contains(msg, "status 5"), strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}
