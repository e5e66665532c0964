package store

import (
	"context"
	"testing"

	"marketrelay/internal/model"
)

func searchRecord(messageID string, providerID string) model.SearchRecord {
	return model.SearchRecord{
		Context: model.Context{MessageID: messageID, Action: model.ActionSearch},
		Catalog: &model.Catalog{
			Providers: []model.ProviderCatalog{{ProviderID: providerID}},
		},
	}
}

func TestMemoryRepositoryFindByMessageID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[model.SearchRecord]()

	if err := repo.InsertMany(ctx, []model.SearchRecord{
		searchRecord("m1", "p1"),
		searchRecord("m1", "p2"),
		searchRecord("m2", "p3"),
	}); err != nil {
		t.Fatalf("InsertMany returned error: %v", err)
	}

	all, err := repo.FindAll(ctx, Query{MessageID: "m1"})
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("FindAll for m1 returned %d records, want 2", len(all))
	}

	first, ok, err := repo.FindOne(ctx, Query{MessageID: "m1"})
	if err != nil {
		t.Fatalf("FindOne returned error: %v", err)
	}
	if !ok {
		t.Fatal("FindOne for m1 reported no record")
	}
	if got := first.Catalog.Providers[0].ProviderID; got != "p1" {
		t.Fatalf("FindOne returned provider %q, want first-inserted p1", got)
	}
}

func TestMemoryRepositoryFindOneAbsentIsNotError(t *testing.T) {
	repo := NewMemoryRepository[model.SearchRecord]()

	_, ok, err := repo.FindOne(context.Background(), Query{MessageID: "missing"})
	if err != nil {
		t.Fatalf("FindOne on empty repository returned error: %v", err)
	}
	if ok {
		t.Fatal("FindOne reported a record in an empty repository")
	}
}

func TestMemoryRepositoryClearAndSize(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[model.SearchRecord]()

	if err := repo.InsertOne(ctx, searchRecord("m1", "p1")); err != nil {
		t.Fatalf("InsertOne returned error: %v", err)
	}

	if n, _ := repo.Size(ctx); n != 1 {
		t.Fatalf("Size = %d, want 1", n)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if n, _ := repo.Size(ctx); n != 0 {
		t.Fatalf("Size after Clear = %d, want 0", n)
	}

	// Clear on an already-empty repository is a no-op.
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("second Clear returned error: %v", err)
	}

	if _, ok, _ := repo.FindOne(ctx, Query{MessageID: "m1"}); ok {
		t.Fatal("record for m1 survived Clear")
	}
}

func TestMemoryRepositoryAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[model.SearchRecord]()

	if err := repo.InsertOne(ctx, searchRecord("m1", "p1")); err != nil {
		t.Fatalf("InsertOne returned error: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	all[0] = searchRecord("mutated", "x")

	again, _ := repo.All(ctx)
	if again[0].CorrelationID() != "m1" {
		t.Fatal("mutating the All snapshot leaked into the repository")
	}
}

func TestQueryZeroValueMatchesEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[model.SearchRecord]()

	_ = repo.InsertOne(ctx, searchRecord("m1", "p1"))
	_ = repo.InsertOne(ctx, searchRecord("m2", "p2"))

	all, err := repo.FindAll(ctx, Query{})
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("zero-value query matched %d records, want 2", len(all))
	}
}
