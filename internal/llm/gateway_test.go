package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeProvider struct {
	name     string
	failures int
	calls    int
	reply    string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient failure")
	}
	return &ChatResponse{Provider: f.name, Model: req.Model, Content: f.reply}, nil
}

func TestGatewayRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("default provider", func(t *testing.T) {
		primary := &fakeProvider{name: "primary", reply: "hi"}
		g := &gateway{
			providers:       map[string]Provider{"primary": primary},
			defaultProvider: "primary",
		}
		resp, err := g.Chat(ctx, ChatRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.Content != "hi" || primary.calls != 1 {
			t.Fatalf("resp=%+v calls=%d", resp, primary.calls)
		}
	})

	t.Run("explicit provider overrides default", func(t *testing.T) {
		a := &fakeProvider{name: "a", reply: "from a"}
		b := &fakeProvider{name: "b", reply: "from b"}
		g := &gateway{
			providers:       map[string]Provider{"a": a, "b": b},
			defaultProvider: "a",
		}
		resp, err := g.Chat(ctx, ChatRequest{Provider: "b", Model: "m"})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.Content != "from b" {
			t.Fatalf("content = %q", resp.Content)
		}
	})

	t.Run("retries then succeeds", func(t *testing.T) {
		flaky := &fakeProvider{name: "p", failures: 1, reply: "ok"}
		g := &gateway{
			providers:       map[string]Provider{"p": flaky},
			defaultProvider: "p",
			maxRetries:      2,
		}
		resp, err := g.Chat(ctx, ChatRequest{Model: "m"})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.Content != "ok" || flaky.calls != 2 {
			t.Fatalf("content=%q calls=%d", resp.Content, flaky.calls)
		}
	})

	t.Run("falls back after exhausting retries", func(t *testing.T) {
		broken := &fakeProvider{name: "broken", failures: 100}
		backup := &fakeProvider{name: "backup", reply: "saved"}
		g := &gateway{
			providers:        map[string]Provider{"broken": broken, "backup": backup},
			defaultProvider:  "broken",
			fallbackProvider: "backup",
		}
		resp, err := g.Chat(ctx, ChatRequest{Model: "m"})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.Content != "saved" {
			t.Fatalf("content = %q, want fallback reply", resp.Content)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		g := &gateway{providers: map[string]Provider{}, defaultProvider: "nope"}
		_, err := g.Chat(ctx, ChatRequest{Model: "m"})
		if err == nil || !strings.Contains(err.Error(), "not configured") {
			t.Fatalf("err = %v, want not configured", err)
		}
	})
}
