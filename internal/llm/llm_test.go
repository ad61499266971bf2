package llm

import (
	"context"
	"errors"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeMessager struct {
	resp *anthropic.Message
	err  error
}

func (f *fakeMessager) New(context.Context, anthropic.MessageNewParams, ...option.RequestOption) (*anthropic.Message, error) {
	return f.resp, f.err
}

func TestAnthropicCallerConcatenatesTextBlocks(t *testing.T) {
	msg := &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: "{\"a\":"},
		{Type: "text", Text: "1}"},
	}}
	caller := &AnthropicCaller{messages: &fakeMessager{resp: msg}, model: "test-model"}
	got, err := caller.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "{\"a\":1}" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestAnthropicCallerPropagatesTransportError(t *testing.T) {
	caller := &AnthropicCaller{messages: &fakeMessager{err: errors.New("status code: 529")}, model: "test-model"}
	if _, err := caller.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestNewAnthropicCallerFromEnvRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicCallerFromEnv(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewFromEnvRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "oracle")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
