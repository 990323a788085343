// ABOUTME: Tests for intent detection: keyword screen, caching, and title matching
package guided

import (
	"context"
	"errors"
	"testing"

	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
)

type countingCompletion struct {
	response string
	err      error
	calls    int
}

func (c *countingCompletion) Complete(_ context.Context, _ string, _ []llm.Message) (string, error) {
	c.calls++
	return c.response, c.err
}

func (c *countingCompletion) CompleteStream(_ context.Context, _ string, _ []llm.Message) (llm.CompletionStream, error) {
	return nil, errors.New("not streamed")
}

func seedDocs(t *testing.T, titles ...string) *store.MemStore {
	t.Helper()
	mem := store.NewMemStore()
	for _, title := range titles {
		if _, err := mem.Insert(context.Background(), models.Document{Title: title, Content: "content", TenantID: "t1"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return mem
}

func TestDetector_KeywordScreenSkipsModel(t *testing.T) {
	mem := seedDocs(t, "Onboarding")
	completion := &countingCompletion{}
	d := NewDetector(mem, completion, nil)

	result := d.Detect(context.Background(), "the weather is nice today", "t1")
	if result.IsProcessRequest {
		t.Error("expected negative detection")
	}
	if completion.calls != 0 {
		t.Errorf("model calls = %d, want 0", completion.calls)
	}
}

func TestDetector_NoDocumentsMeansNoGuidance(t *testing.T) {
	mem := store.NewMemStore()
	completion := &countingCompletion{}
	d := NewDetector(mem, completion, nil)

	result := d.Detect(context.Background(), "guide me through onboarding", "t1")
	if result.IsProcessRequest {
		t.Error("expected negative detection with empty store")
	}
	if completion.calls != 0 {
		t.Errorf("model calls = %d, want 0", completion.calls)
	}
}

func TestDetector_MatchesTitleSubstringBothWays(t *testing.T) {
	tests := []struct {
		name      string
		docTitle  string
		namedSop  string
		wantMatch bool
	}{
		{"classification inside title", "Customer Onboarding Process", "Onboarding", true},
		{"title inside classification", "Onboarding", "Customer Onboarding Process", true},
		{"no overlap", "Offboarding", "Security Review", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := seedDocs(t, tt.docTitle)
			completion := &countingCompletion{
				response: `{"isProcessRequest": true, "sopTitle": "` + tt.namedSop + `", "confidence": 0.75}`,
			}
			d := NewDetector(mem, completion, nil)

			result := d.Detect(context.Background(), "guide me through this", "t1")
			if result.IsProcessRequest != tt.wantMatch {
				t.Errorf("IsProcessRequest = %v, want %v", result.IsProcessRequest, tt.wantMatch)
			}
			if tt.wantMatch && result.Document.Title != tt.docTitle {
				t.Errorf("Document.Title = %q", result.Document.Title)
			}
		})
	}
}

func TestDetector_HighConfidenceFallsBackToFirstDocument(t *testing.T) {
	mem := seedDocs(t, "First Doc", "Second Doc")
	completion := &countingCompletion{
		response: `{"isProcessRequest": true, "sopTitle": "Nonexistent", "confidence": 0.95}`,
	}
	d := NewDetector(mem, completion, nil)

	result := d.Detect(context.Background(), "guide me please", "t1")
	if !result.IsProcessRequest {
		t.Fatal("expected positive detection via fallback")
	}
	if result.Document.Title != "First Doc" {
		t.Errorf("Document.Title = %q, want First Doc", result.Document.Title)
	}
}

func TestDetector_ModerateConfidenceWithoutMatchIsNegative(t *testing.T) {
	mem := seedDocs(t, "First Doc")
	completion := &countingCompletion{
		response: `{"isProcessRequest": true, "sopTitle": "Nonexistent", "confidence": 0.75}`,
	}
	d := NewDetector(mem, completion, nil)

	if d.Detect(context.Background(), "guide me please", "t1").IsProcessRequest {
		t.Error("expected negative detection")
	}
}

func TestDetector_CachePreventsSecondModelCall(t *testing.T) {
	mem := seedDocs(t, "Onboarding")
	completion := &countingCompletion{
		response: `{"isProcessRequest": true, "sopTitle": "Onboarding", "confidence": 0.9}`,
	}
	d := NewDetector(mem, completion, nil)
	ctx := context.Background()

	d.Detect(ctx, "Guide me through onboarding", "t1")
	// same message modulo case and whitespace
	d.Detect(ctx, "  guide me through ONBOARDING ", "t1")

	if completion.calls != 1 {
		t.Errorf("model calls = %d, want 1", completion.calls)
	}
}

func TestDetector_ErrorsAbsorbedAndNotCached(t *testing.T) {
	mem := seedDocs(t, "Onboarding")
	completion := &countingCompletion{err: errors.New("provider down")}
	d := NewDetector(mem, completion, nil)
	ctx := context.Background()

	if d.Detect(ctx, "guide me through onboarding", "t1").IsProcessRequest {
		t.Error("expected negative detection on provider error")
	}

	// recovery must reach the model again
	completion.err = nil
	completion.response = `{"isProcessRequest": true, "sopTitle": "Onboarding", "confidence": 0.9}`
	if !d.Detect(ctx, "guide me through onboarding", "t1").IsProcessRequest {
		t.Error("expected positive detection after recovery")
	}
	if completion.calls != 2 {
		t.Errorf("model calls = %d, want 2", completion.calls)
	}
}

func TestDetector_ParsesFencedJSON(t *testing.T) {
	mem := seedDocs(t, "Onboarding")
	completion := &countingCompletion{
		response: "Here you go:\n```json\n{\"isProcessRequest\": true, \"sopTitle\": \"Onboarding\", \"confidence\": 0.9}\n```",
	}
	d := NewDetector(mem, completion, nil)

	if !d.Detect(context.Background(), "guide me through onboarding", "t1").IsProcessRequest {
		t.Error("expected fenced JSON to parse")
	}
}
