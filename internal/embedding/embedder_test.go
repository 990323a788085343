// ABOUTME: Tests for the cached embedder
package embedding

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	calls  int
	vector []float32
	err    error
	last   string
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.last = text
	return f.vector, f.err
}

func TestEmbedder_CachesByNormalizedText(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1, 2, 3}}
	e := New(provider)
	ctx := context.Background()

	first, err := e.Embed(ctx, "How do I onboard a customer?")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	// differs only in case and surrounding whitespace
	second, err := e.Embed(ctx, "  HOW DO I ONBOARD A CUSTOMER?  ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Errorf("vector lengths = %d, %d, want 3", len(first), len(second))
	}
}

func TestEmbedder_StripsMarkupBeforeProvider(t *testing.T) {
	provider := &fakeProvider{vector: []float32{1}}
	e := New(provider)

	if _, err := e.Embed(context.Background(), "<p>Approve the <b>invoice</b></p>"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if provider.last != "Approve the invoice" {
		t.Errorf("provider received %q", provider.last)
	}
}

func TestEmbedder_ProviderErrorNotCached(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	e := New(provider)
	ctx := context.Background()

	if _, err := e.Embed(ctx, "text"); err == nil {
		t.Fatal("expected error")
	}
	if e.CacheLen() != 0 {
		t.Errorf("cache len = %d, want 0 after failure", e.CacheLen())
	}

	provider.err = nil
	provider.vector = []float32{1}
	if _, err := e.Embed(ctx, "text"); err != nil {
		t.Fatalf("Embed() after recovery error = %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}
