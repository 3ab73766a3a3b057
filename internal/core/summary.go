package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
	Count  int    `json:"count"`
}

// Summary is the running-totals view of the whole list.
type Summary struct {
	Items          int              `json:"items"`
	PurchasedItems int              `json:"purchasedItems"`
	RemainingItems int              `json:"remainingItems"`
	TotalCost      Money            `json:"totalCost"`
	PurchasedCost  Money            `json:"purchasedCost"`
	RemainingCost  Money            `json:"remainingCost"`
	ByCategory     []CategoryAmount `json:"byCategory"`
}

// TotalCost sums every item, purchased or not.
func TotalCost(items []Item) Money {
	var total Money
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}

// PurchasedCost sums the purchased items.
func PurchasedCost(items []Item) Money {
	var total Money
	for _, it := range items {
		if it.Purchased {
			total = total.Add(it.Price)
		}
	}
	return total
}

// RemainingCost sums the items still to buy.
func RemainingCost(items []Item) Money {
	var total Money
	for _, it := range items {
		if !it.Purchased {
			total = total.Add(it.Price)
		}
	}
	return total
}

// Summarize computes counts and costs in one pass. ByCategory lists
// categories in order of first appearance.
func Summarize(items []Item) Summary {
	s := Summary{Items: len(items), ByCategory: []CategoryAmount{}}
	idx := map[string]int{}
	for _, it := range items {
		s.TotalCost = s.TotalCost.Add(it.Price)
		if it.Purchased {
			s.PurchasedItems++
			s.PurchasedCost = s.PurchasedCost.Add(it.Price)
		} else {
			s.RemainingItems++
			s.RemainingCost = s.RemainingCost.Add(it.Price)
		}

		i, ok := idx[it.Category]
		if !ok {
			i = len(s.ByCategory)
			idx[it.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: it.Category})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(it.Price)
		s.ByCategory[i].Count++
	}
	return s
}
