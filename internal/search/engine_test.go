// ABOUTME: Tests for hybrid retrieval tiers, dedup, relevance filtering, and fallback
package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
)

type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

func seedStore(t *testing.T) *store.MemStore {
	t.Helper()
	mem := store.NewMemStore()
	ctx := context.Background()

	docs := []models.Document{
		{Title: "Customer Onboarding", Content: "Steps to onboard a new customer account.", Tags: []string{"sales"}, TenantID: "t1", Embedding: []float32{1, 0}},
		{Title: "Invoice Processing", Content: "Handling invoices raised during customer onboarding.", Tags: []string{"onboarding", "finance"}, TenantID: "t1", Embedding: []float32{0.9, 0.1}},
		{Title: "Security Review", Content: "Quarterly security checklist.", Tags: []string{"security"}, TenantID: "t1", Embedding: []float32{0, 1}},
		{Title: "Other Tenant Doc", Content: "Customer onboarding elsewhere.", Tags: []string{"sales"}, TenantID: "t2", Embedding: []float32{1, 0}},
	}
	for _, d := range docs {
		if _, err := mem.Insert(ctx, d); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
	return mem
}

func TestEngine_ExactTitleTierWinsWithFullScore(t *testing.T) {
	mem := seedStore(t)
	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)

	results, err := e.Search(context.Background(), "customer onboarding", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Title != "Customer Onboarding" {
		t.Errorf("top result = %q, want Customer Onboarding", results[0].Title)
	}
	if results[0].SearchTier != models.TierExactTitle {
		t.Errorf("tier = %q, want %q", results[0].SearchTier, models.TierExactTitle)
	}
	if results[0].RelevanceScore != 1.0 {
		t.Errorf("score = %v, want 1.0", results[0].RelevanceScore)
	}
}

func TestEngine_TagTierScoresBelowTitle(t *testing.T) {
	mem := seedStore(t)
	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)

	results, err := e.Search(context.Background(), "onboarding", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	var sawTag bool
	for _, r := range results {
		if r.Title == "Invoice Processing" {
			sawTag = true
			if r.SearchTier != models.TierTagMatch {
				t.Errorf("tier = %q, want %q", r.SearchTier, models.TierTagMatch)
			}
			if r.RelevanceScore != 0.8 {
				t.Errorf("score = %v, want 0.8", r.RelevanceScore)
			}
		}
	}
	if !sawTag {
		t.Error("expected tag-matched document in results")
	}
}

func TestEngine_TagOnlyKeywordMatchIsFiltered(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	// keyword appears in the tags only, never in title or content
	mem.Insert(ctx, models.Document{
		Title: "Invoice Workflow", Content: "Handling inbound invoices for the finance team.",
		Tags: []string{"onboarding"}, TenantID: "t1",
	})

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Search(ctx, "onboarding", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 (tag overlap alone is not relevance)", len(results))
	}
}

func TestEngine_TitleTierMatchesFullQueryOfShortWords(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	mem.Insert(ctx, models.Document{Title: "QA Checklist", Content: "Pre-release verification steps.", TenantID: "t1"})

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Search(ctx, "qa", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].SearchTier != models.TierExactTitle {
		t.Errorf("tier = %q, want %q", results[0].SearchTier, models.TierExactTitle)
	}
}

func TestEngine_NeverCrossesTenants(t *testing.T) {
	mem := seedStore(t)
	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)

	results, err := e.Search(context.Background(), "customer onboarding", "t1", "", RoleAdmin, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Title == "Other Tenant Doc" {
			t.Error("result crossed tenant boundary")
		}
	}
}

func TestEngine_NonAdminSeesOnlyAssignedDocuments(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	mem.Insert(ctx, models.Document{
		Title: "Payroll Process", Content: "Monthly payroll run.", TenantID: "t1",
		AssignedTo: []models.Assignee{{Email: "user@example.com", Role: "member"}},
	})
	mem.Insert(ctx, models.Document{Title: "Payroll Escalation", Content: "Escalation path.", TenantID: "t1"})

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Search(ctx, "payroll", "t1", "user@example.com", "member", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Title != "Payroll Process" {
		t.Errorf("results = %v, want only assigned document", results)
	}
}

func TestEngine_DedupesByNormalizedTitle(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	mem.Insert(ctx, models.Document{Title: "Refund Policy", Content: "refund steps", Tags: []string{"refund"}, TenantID: "t1"})
	mem.Insert(ctx, models.Document{Title: "  refund policy ", Content: "duplicate copy", Tags: []string{"refund"}, TenantID: "t1"})

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Search(ctx, "refund policy", "t1", "", RoleAdmin, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 after dedup", len(results))
	}
	if results[0].Title != "Refund Policy" {
		t.Errorf("kept %q, want first occurrence", results[0].Title)
	}
}

func TestEngine_VectorTierFailureIsSkipped(t *testing.T) {
	mem := seedStore(t)
	e := New(mem, &fixedEmbedder{err: errors.New("provider down")}, nil)

	results, err := e.Search(context.Background(), "customer onboarding", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v, want tier skip", err)
	}
	if len(results) == 0 {
		t.Error("expected title-tier results despite vector failure")
	}
}

func TestEngine_RelevanceFilterDropsUnrelated(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	// shares no keyword with the query in any field
	mem.Insert(ctx, models.Document{Title: "Unrelated", Content: "nothing in common", Tags: []string{"billing"}, TenantID: "t1"})

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Search(ctx, "vacation request", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestEngine_VectorResultsNeedHighScoreWithoutTitleMatch(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	// content mentions the query word, title does not
	mem.Insert(ctx, models.Document{
		Title: "General Guide", Content: "covers expenses in detail", TenantID: "t1",
		Embedding: []float32{1, 0},
	})

	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	// cosine 1.0 -> normalized 1.0 -> weighted 0.6 > 0.5, passes
	results, err := e.Search(ctx, "expenses", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].SearchTier != models.TierVector {
		t.Errorf("tier = %q, want %q", results[0].SearchTier, models.TierVector)
	}

	// orthogonal vector: weighted score 0.3 < 0.5, filtered out
	e = New(mem, &fixedEmbedder{vector: []float32{0, 1}}, nil)
	results, err = e.Search(ctx, "expenses", "t1", "", RoleAdmin, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 for weak vector match", len(results))
	}
}

func TestEngine_Fallback(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		mem.Insert(ctx, models.Document{Title: "Guide", Content: "mentions holidays and leave", TenantID: "t1"})
	}

	e := New(mem, &fixedEmbedder{err: errors.New("no vectors")}, nil)
	results, err := e.Fallback(ctx, "holidays", "t1", "", RoleAdmin)
	if err != nil {
		t.Fatalf("Fallback() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("results = %d, want capped at 3", len(results))
	}
}

func TestQueryWords(t *testing.T) {
	got := QueryWords("How do I do an RFP?")
	want := []string{"how", "rfp?"}
	if len(got) != len(want) {
		t.Fatalf("QueryWords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QueryWords[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEngine_AdvancedSearchMinScoreAndBoosts(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	now := time.Now()

	mem.Insert(ctx, models.Document{
		Title: "Expense Claims", Content: "claim forms", Tags: []string{"expense"},
		TenantID: "t1", Embedding: []float32{1, 0}, CreatedAt: now,
	})
	mem.Insert(ctx, models.Document{
		Title: "Old Unrelated", Content: "misc", TenantID: "t1",
		Embedding: []float32{0, 1}, CreatedAt: now.AddDate(-1, 0, 0),
	})

	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	results, err := e.AdvancedSearch(ctx, "expense claims", "t1", "", RoleAdmin, AdvancedOptions{})
	if err != nil {
		t.Fatalf("AdvancedSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (orthogonal doc below min score)", len(results))
	}
	if results[0].Title != "Expense Claims" {
		t.Errorf("title = %q", results[0].Title)
	}
	// raw 1.0 multiplied by two title-word boosts, one tag boost, and recency
	if results[0].RelevanceScore <= 1.0 {
		t.Errorf("score = %v, want boosted above the raw similarity", results[0].RelevanceScore)
	}
}

func TestEngine_AdvancedSearchBoostsCannotRescueWeakMatches(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()

	// cosine 0.3 against the query vector -> normalized similarity 0.65,
	// below the default min score despite title, tag, and recency boosts
	mem.Insert(ctx, models.Document{
		Title: "Expense Report", Content: "report forms", Tags: []string{"expense"},
		TenantID: "t1", Embedding: []float32{0.3, 0.9539392}, CreatedAt: time.Now(),
	})

	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	results, err := e.AdvancedSearch(ctx, "expense report", "t1", "", RoleAdmin, AdvancedOptions{})
	if err != nil {
		t.Fatalf("AdvancedSearch() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 (min score cuts on raw similarity)", len(results))
	}
}

func TestEngine_AdvancedSearchStripsPartSuffix(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	mem.Insert(ctx, models.Document{
		Title: "Handbook (Part 2/5)", Content: "handbook chunk", TenantID: "t1",
		Embedding: []float32{1, 0}, IsChunk: true, ParentID: "p1", CreatedAt: time.Now(),
	})

	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	results, err := e.AdvancedSearch(ctx, "handbook", "t1", "", RoleAdmin, AdvancedOptions{IncludeChunks: true, MinScore: 0.5})
	if err != nil {
		t.Fatalf("AdvancedSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Title != "Handbook" {
		t.Errorf("title = %q, want part suffix stripped", results[0].Title)
	}
}

func TestEngine_AdvancedSearchTagFilter(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	mem.Insert(ctx, models.Document{Title: "HR Doc", Content: "x", Tags: []string{"hr"}, TenantID: "t1", Embedding: []float32{1, 0}, CreatedAt: time.Now()})
	mem.Insert(ctx, models.Document{Title: "Finance Doc", Content: "x", Tags: []string{"finance"}, TenantID: "t1", Embedding: []float32{1, 0}, CreatedAt: time.Now()})

	e := New(mem, &fixedEmbedder{vector: []float32{1, 0}}, nil)
	results, err := e.AdvancedSearch(ctx, "doc", "t1", "", RoleAdmin, AdvancedOptions{Tags: []string{"hr"}, MinScore: 0.5})
	if err != nil {
		t.Fatalf("AdvancedSearch() error = %v", err)
	}
	if len(results) != 1 || results[0].Title != "HR Doc" {
		t.Errorf("results = %v, want only hr-tagged doc", results)
	}
}
