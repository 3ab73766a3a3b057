package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllCategories disables the category filter.
const AllCategories = "all"

const (
	SortByName     SortBy = "name"
	SortByPrice    SortBy = "price"
	SortByCategory SortBy = "category"
	SortByDate     SortBy = "date"
)

type (
	// SortBy selects the ordering of the filtered view.
	SortBy string

	// Filter is the shared category/visibility/sort selection.
	Filter struct {
		Category      string `json:"category"`
		ShowPurchased bool   `json:"showPurchased"`
		SortBy        SortBy `json:"sortBy"`
	}

	// FilterPatch sets any subset of the filter fields.
	FilterPatch struct {
		Category      *string
		ShowPurchased *bool
		SortBy        *SortBy
	}
)

// DefaultFilter shows every item of every category sorted by name.
func DefaultFilter() Filter {
	return Filter{
		Category:      AllCategories,
		ShowPurchased: true,
		SortBy:        SortByName,
	}
}

// IsValid returns true for the four known orderings.
func (s SortBy) IsValid() bool {
	switch s {
	case SortByName, SortByPrice, SortByCategory, SortByDate:
		return true
	default:
		return false
	}
}

// ParseSortBy validates user input at the presentation boundary.
func ParseSortBy(s string) (SortBy, error) {
	sb := SortBy(strings.ToLower(strings.TrimSpace(s)))
	if !sb.IsValid() {
		return "", fmt.Errorf("invalid sort %q: must be one of name, price, category, date", s)
	}
	return sb, nil
}

// Merge returns f with the patch fields applied; unset fields keep their value.
func (f Filter) Merge(p FilterPatch) Filter {
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.ShowPurchased != nil {
		f.ShowPurchased = *p.ShowPurchased
	}
	if p.SortBy != nil {
		f.SortBy = *p.SortBy
	}
	return f
}

// Apply filters by category, then by purchased visibility, then stable-sorts.
// The input slice is never modified.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Category != AllCategories && it.Category != f.Category {
			continue
		}
		if !f.ShowPurchased && it.Purchased {
			continue
		}
		out = append(out, it)
	}

	switch f.SortBy {
	case SortByPrice:
		slices.SortStableFunc(out, func(a, b Item) int {
			return cmp.Compare(b.Price.Cents, a.Price.Cents)
		})
	case SortByCategory:
		c := collate.New(language.English)
		slices.SortStableFunc(out, func(a, b Item) int {
			return c.CompareString(a.Category, b.Category)
		})
	case SortByDate:
		slices.SortStableFunc(out, func(a, b Item) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	default:
		c := collate.New(language.English)
		slices.SortStableFunc(out, func(a, b Item) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
	return out
}

// Search keeps the items whose name contains term, ignoring case.
// A blank term returns a copy of items.
func Search(items []Item, term string) []Item {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if term == "" || strings.Contains(strings.ToLower(it.Name), term) {
			out = append(out, it)
		}
	}
	return out
}
