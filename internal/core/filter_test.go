package core

import (
	"testing"
	"time"
)

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sameIDs(t *testing.T, got []Item, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestFilterSortOrders(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	items := []Item{
		{ID: "A", Name: "Banana", Price: Money{Cents: 100}, Category: "Groceries", CreatedAt: t1},
		{ID: "B", Name: "Apple", Price: Money{Cents: 500}, Category: "Groceries", CreatedAt: t2},
	}

	for _, sb := range []SortBy{SortByName, SortByPrice, SortByDate} {
		f := DefaultFilter()
		f.SortBy = sb
		sameIDs(t, f.Apply(items), "B", "A")
	}
	if items[0].ID != "A" {
		t.Fatalf("Apply must not reorder its input")
	}
}

func TestFilterSortIsStableAndLocaleAware(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "zucchini", Price: Money{Cents: 200}, Category: "Home"},
		{ID: "2", Name: "Éclair", Price: Money{Cents: 200}, Category: "electronics"},
		{ID: "3", Name: "apple", Price: Money{Cents: 200}, Category: "Home"},
		{ID: "4", Name: "Banana", Price: Money{Cents: 300}, Category: "Groceries"},
	}

	f := DefaultFilter()
	sameIDs(t, f.Apply(items), "3", "4", "2", "1")

	f.SortBy = SortByPrice
	sameIDs(t, f.Apply(items), "4", "1", "2", "3")

	f.SortBy = SortByCategory
	sameIDs(t, f.Apply(items), "2", "4", "1", "3")

	// Ties keep insertion order: all created at the zero time.
	f.SortBy = SortByDate
	sameIDs(t, f.Apply(items), "1", "2", "3", "4")

	f.SortBy = SortBy("bogus")
	sameIDs(t, f.Apply(items), "3", "4", "2", "1")
}

func TestFilterCategoryAndPurchased(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "a", Category: "Groceries", Purchased: true},
		{ID: "2", Name: "b", Category: "Home"},
		{ID: "3", Name: "c", Category: "Groceries"},
		{ID: "4", Name: "d", Category: "groceries"},
	}

	f := Filter{Category: "Groceries", ShowPurchased: true, SortBy: SortByName}
	sameIDs(t, f.Apply(items), "1", "3")

	f.ShowPurchased = false
	got := f.Apply(items)
	sameIDs(t, got, "3")
	for _, it := range got {
		if it.Purchased {
			t.Fatalf("purchased item leaked into view: %+v", it)
		}
	}

	f = Filter{Category: AllCategories, ShowPurchased: false, SortBy: SortByName}
	sameIDs(t, f.Apply(items), "2", "3", "4")
}

func TestFilterMerge(t *testing.T) {
	f := DefaultFilter()
	sb := SortByPrice
	got := f.Merge(FilterPatch{SortBy: &sb})
	if got.SortBy != SortByPrice || got.Category != AllCategories || !got.ShowPurchased {
		t.Fatalf("merge touched unrelated fields: %+v", got)
	}

	show := false
	cat := "Home"
	got = got.Merge(FilterPatch{ShowPurchased: &show, Category: &cat})
	if got.SortBy != SortByPrice || got.Category != "Home" || got.ShowPurchased {
		t.Fatalf("unexpected merge: %+v", got)
	}
}

func TestParseSortBy(t *testing.T) {
	for _, in := range []string{"name", "PRICE", " category ", "date"} {
		if _, err := ParseSortBy(in); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
	}
	if _, err := ParseSortBy("size"); err == nil {
		t.Fatalf("expected error for unknown sort")
	}
}

func TestSearch(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "Whole Milk"},
		{ID: "2", Name: "Bread"},
		{ID: "3", Name: "milk chocolate"},
	}
	sameIDs(t, Search(items, "MILK"), "1", "3")
	sameIDs(t, Search(items, "  "), "1", "2", "3")
	sameIDs(t, Search(items, "cheese"))
}
