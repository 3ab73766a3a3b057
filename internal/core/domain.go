package core

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"time"
)

// Field names used as keys in FieldErrors.
const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldCategory = "category"
)

// Messages surfaced next to the offending form field.
const (
	MsgNameRequired    = "Item name is required"
	MsgPriceInvalid    = "Price must be greater than 0"
	MsgCategoryUnknown = "Unknown category"
)

type (
	Money struct {
		Cents int64
	}

	// Item is a single priced, categorized shopping-list entry.
	Item struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Price     Money     `json:"price"`
		Category  string    `json:"category"`
		Purchased bool      `json:"purchased"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Draft carries the user-supplied fields of a new item.
	Draft struct {
		Name     string
		Price    Money
		Category string
	}

	// ItemPatch replaces the non-nil fields of an existing item.
	ItemPatch struct {
		Name     *string
		Price    *Money
		Category *string
	}

	// FieldErrors maps a form field to its validation message.
	FieldErrors map[string]string
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyCategory     = errors.New("empty category")
	ErrDuplicateCategory = errors.New("duplicate category")
)

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Normalize trims the free-text fields.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	return d
}

// Validate checks the draft against the current category set.
// It returns FieldErrors, or nil when the draft is acceptable.
func (d Draft) Validate(categories []string) error {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs[FieldName] = MsgNameRequired
	}
	if err := d.Price.Validate(); err != nil {
		errs[FieldPrice] = MsgPriceInvalid
	}
	if !slices.Contains(categories, strings.TrimSpace(d.Category)) {
		errs[FieldCategory] = MsgCategoryUnknown
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks only the fields the patch sets. Categories are not
// checked: items may carry labels that are no longer in the set.
func (p ItemPatch) Validate() error {
	errs := FieldErrors{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs[FieldName] = MsgNameRequired
	}
	if p.Price != nil && p.Price.Validate() != nil {
		errs[FieldPrice] = MsgPriceInvalid
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Category == nil
}

// Apply returns a copy of it with the patch fields replaced.
func (p ItemPatch) Apply(it Item) Item {
	if p.Name != nil {
		it.Name = strings.TrimSpace(*p.Name)
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	return it
}

// ValidateCategory trims label and rejects blanks and members of existing.
func ValidateCategory(label string, existing []string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyCategory
	}
	if slices.Contains(existing, label) {
		return "", ErrDuplicateCategory
	}
	return label, nil
}

// DedupeCategories drops blanks and repeated labels, preserving order.
func DedupeCategories(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// TimestampLayout is the ISO-8601 form used for createdAt and exportDate.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
