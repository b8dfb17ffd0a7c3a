package vocab

import (
	"context"
	"errors"
	"testing"

	"gastos/internal/core"
	"gastos/internal/sheets/memory"
)

func newTestRegistry() (*Registry, *memory.Table) {
	tab := memory.NewTable()
	return NewRegistry(tab, "Categoria", []string{"moradia", "outros"}), tab
}

func TestListAllDoesNotWriteToEmptyTable(t *testing.T) {
	ctx := context.Background()
	r, tab := newTestRegistry()

	list, err := r.ListAll(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("list: got %v err=%v", list, err)
	}
	// Reads leave a brand-new table untouched.
	if tab.Len() != 0 {
		t.Fatalf("ListAll wrote %d rows", tab.Len())
	}

	// The header comes from the explicit ensure step, once.
	if err := r.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if err := r.EnsureHeader(ctx); err != nil {
		t.Fatalf("second ensure header: %v", err)
	}
	if tab.Len() != 1 || tab.Row(1)[0] != "Categoria" {
		t.Fatalf("unexpected table after ensure: len=%d row=%v", tab.Len(), tab.Row(1))
	}
}

func TestAddNormalizesAndAppends(t *testing.T) {
	ctx := context.Background()
	r, tab := newTestRegistry()

	got, err := r.Add(ctx, "  Educação ")
	if err != nil || got != "educacao" {
		t.Fatalf("add: got %q err=%v", got, err)
	}
	list, _ := r.ListAll(ctx)
	if len(list) != 1 || list[0] != "educacao" {
		t.Fatalf("unexpected list: %v", list)
	}
	// Header plus one data row, written through.
	if tab.Len() != 2 || tab.Row(2)[0] != "educacao" {
		t.Fatalf("write-through missing: %v", tab.Row(2))
	}

	// Same normalized text fails the second time.
	if _, err := r.Add(ctx, "EDUCAÇÃO"); !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	list, _ = r.ListAll(ctx)
	if len(list) != 1 {
		t.Fatalf("duplicate add changed the list: %v", list)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	cases := []struct {
		in   string
		want error
	}{
		{"", core.ErrInvalidCharacters},
		{"   ", core.ErrInvalidCharacters},
		{"compras2024", core.ErrInvalidCharacters},
		{"a-b", core.ErrInvalidCharacters},
		{"umacategoriagrandedemais", core.ErrTooLong},
	}
	for _, tc := range cases {
		if _, err := r.Add(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("Add(%q): expected %v, got %v", tc.in, tc.want, err)
		}
	}
}

func TestRemoveByPosition(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()
	for _, v := range []string{"comida", "lazer", "saude"} {
		if _, err := r.Add(ctx, v); err != nil {
			t.Fatalf("add %q: %v", v, err)
		}
	}

	removed, err := r.RemoveByPosition(ctx, 2)
	if err != nil || removed != "lazer" {
		t.Fatalf("remove: got %q err=%v", removed, err)
	}
	list, _ := r.ListAll(ctx)
	if len(list) != 2 || list[0] != "comida" || list[1] != "saude" {
		t.Fatalf("unexpected order after remove: %v", list)
	}

	// Out-of-range index fails and leaves the list unchanged.
	if _, err := r.RemoveByPosition(ctx, 5); !errors.Is(err, core.ErrPositionOutOfRange) {
		t.Fatalf("expected ErrPositionOutOfRange, got %v", err)
	}
	if _, err := r.RemoveByPosition(ctx, 0); !errors.Is(err, core.ErrPositionOutOfRange) {
		t.Fatalf("expected ErrPositionOutOfRange for 0, got %v", err)
	}
	list, _ = r.ListAll(ctx)
	if len(list) != 2 {
		t.Fatalf("failed remove mutated the list: %v", list)
	}
}

func TestRemoveThenAddKeepsOrder(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()
	for _, v := range []string{"um", "dois", "tres"} {
		r.Add(ctx, v)
	}
	if _, err := r.RemoveByPosition(ctx, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := r.Add(ctx, "quatro"); err != nil {
		t.Fatalf("add after remove: %v", err)
	}
	list, _ := r.ListAll(ctx)
	want := []string{"um", "dois", "quatro"}
	if len(list) != len(want) {
		t.Fatalf("unexpected list: %v", list)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("position %d: expected %q, got %v", i+1, want[i], list)
		}
	}
}

func TestSeedDefaultsIfEmptyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry()

	if err := r.SeedDefaultsIfEmpty(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	list, _ := r.ListAll(ctx)
	if len(list) != 2 || list[0] != "moradia" {
		t.Fatalf("unexpected seed: %v", list)
	}

	// Second call is a no-op, even after further adds.
	r.Add(ctx, "comida")
	if err := r.SeedDefaultsIfEmpty(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	list, _ = r.ListAll(ctx)
	if len(list) != 3 {
		t.Fatalf("seed was not idempotent: %v", list)
	}
}
