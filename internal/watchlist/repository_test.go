package watchlist

import (
	"context"
	"reflect"
	"testing"

	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/store/mem"
)

var (
	xyz = model.Instrument{Symbol: "XYZ", Name: "Xyz Corp", InitialPrice: 10000}
	abc = model.Instrument{Symbol: "ABC", Name: "Abc Ltd", InitialPrice: 25050}
)

func TestRepository_LoadAbsentIsEmpty(t *testing.T) {
	r := NewRepository(mem.New())

	entries := r.Load(context.Background(), "alice")
	if len(entries) != 0 {
		t.Fatalf("expected empty watchlist for unknown identity, got %d entries", len(entries))
	}
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(mem.New())

	want := []model.WatchlistEntry{
		model.NewWatchlistEntry(xyz),
		model.NewWatchlistEntry(abc),
	}
	if err := r.Save(ctx, "alice", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := r.Load(ctx, "alice")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}

	// Other identities stay isolated
	if other := r.Load(ctx, "bob"); len(other) != 0 {
		t.Errorf("bob's watchlist should be empty, got %+v", other)
	}
}

func TestRepository_AddSnapshotsAtAddTime(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(mem.New())

	entries, err := r.Add(ctx, "alice", xyz)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].InitialPrice != xyz.InitialPrice {
		t.Errorf("initial price = %d, want add-time snapshot %d", entries[0].InitialPrice, xyz.InitialPrice)
	}
}

func TestRepository_AddDuplicateSymbolIsNoOp(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(mem.New())

	first, _ := r.Add(ctx, "alice", xyz)

	// Same symbol, different price: must not touch the stored snapshot
	changed := xyz
	changed.InitialPrice = 99999
	second, err := r.Add(ctx, "alice", changed)
	if err != nil {
		t.Fatalf("duplicate Add: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("duplicate add changed the set: %+v vs %+v", first, second)
	}
	if second[0].InitialPrice != xyz.InitialPrice {
		t.Errorf("duplicate add replaced snapshot price: got %d", second[0].InitialPrice)
	}
}

func TestRepository_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(mem.New())
	r.Add(ctx, "alice", xyz)
	r.Add(ctx, "alice", abc)

	after, err := r.Remove(ctx, "alice", "XYZ")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(after) != 1 || after[0].Symbol != "ABC" {
		t.Fatalf("after remove: got %+v", after)
	}

	// Second removal of the same symbol is a no-op
	again, err := r.Remove(ctx, "alice", "XYZ")
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if !reflect.DeepEqual(after, again) {
		t.Errorf("second remove changed the set: %+v vs %+v", after, again)
	}
}

func TestRepository_MalformedDataTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := mem.New()
	kv.Set(ctx, "watchlist:alice", `{"definitely": "not a list"`)

	r := NewRepository(kv)
	if entries := r.Load(ctx, "alice"); len(entries) != 0 {
		t.Fatalf("malformed blob should read as empty, got %+v", entries)
	}

	// Repository self-heals: next mutation writes a fresh mapping
	entries, err := r.Add(ctx, "alice", xyz)
	if err != nil {
		t.Fatalf("Add after malformed blob: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected fresh single-entry list, got %+v", entries)
	}
	if got := r.Load(ctx, "alice"); !reflect.DeepEqual(got, entries) {
		t.Errorf("reload after heal: got %+v, want %+v", got, entries)
	}
}

func TestRepository_DeleteAccountDataCascade(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(mem.New())
	r.Add(ctx, "bob", xyz)

	if err := r.DeleteAccountData(ctx, "bob"); err != nil {
		t.Fatalf("DeleteAccountData: %v", err)
	}
	if entries := r.Load(ctx, "bob"); len(entries) != 0 {
		t.Errorf("bob's watchlist should be gone, got %+v", entries)
	}

	// Deleting again is harmless
	if err := r.DeleteAccountData(ctx, "bob"); err != nil {
		t.Errorf("second DeleteAccountData: %v", err)
	}
}
