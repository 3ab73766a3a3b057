package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"shoplist/internal/core"
)

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// priceInput accepts a price either as a JSON number or as user-typed text
// such as "3,50". Unparseable input becomes a zero amount, which fails
// validation with the usual price message.
type priceInput struct {
	set   bool
	money core.Money
}

func (p *priceInput) UnmarshalJSON(b []byte) error {
	p.set = true
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		p.money = core.Money{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		m, err := core.ParsePrice(s)
		if err != nil {
			m = core.Money{}
		}
		p.money = m
		return nil
	}
	var m core.Money
	if err := m.UnmarshalJSON(b); err != nil {
		p.money = core.Money{}
		return nil
	}
	p.money = m
	return nil
}

// itemRequest is the body of item create and update calls.
type itemRequest struct {
	Name     *string    `json:"name"`
	Price    priceInput `json:"price"`
	Category *string    `json:"category"`
}

func (req itemRequest) draft() core.Draft {
	return core.Draft{
		Name:     sanitizeInput(deref(req.Name)),
		Price:    req.Price.money,
		Category: sanitizeInput(deref(req.Category)),
	}
}

func (req itemRequest) patch() core.ItemPatch {
	var p core.ItemPatch
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		p.Name = &name
	}
	if req.Price.set {
		price := req.Price.money
		p.Price = &price
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		p.Category = &category
	}
	return p
}

// filterRequest is the body of PATCH /api/filter.
type filterRequest struct {
	Category      *string `json:"category"`
	ShowPurchased *bool   `json:"showPurchased"`
	SortBy        *string `json:"sortBy"`
}

func (req filterRequest) patch() (core.FilterPatch, error) {
	var p core.FilterPatch
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = core.AllCategories
		}
		p.Category = &category
	}
	p.ShowPurchased = req.ShowPurchased
	if req.SortBy != nil {
		sb, err := core.ParseSortBy(*req.SortBy)
		if err != nil {
			return core.FilterPatch{}, err
		}
		p.SortBy = &sb
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
