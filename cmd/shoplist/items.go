package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shoplist/internal/core"
	"shoplist/internal/render"
)

// storeError turns validation failures into one readable line.
func storeError(err error) error {
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		return errors.New(fieldErrorsText(fe))
	}
	return err
}

// parsePriceArg returns a zero amount for unparseable input so the store
// reports it with the usual price message.
func parsePriceArg(s string) core.Money {
	m, err := core.ParsePrice(s)
	if err != nil {
		return core.Money{}
	}
	return m
}

func newAddCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "add <name> <price>",
		Short:   "Add an item to the list",
		Example: `  shoplist add "Oat milk" 2,49 -c Groceries`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.store.AddItem(core.Draft{
				Name:     args[0],
				Price:    parsePriceArg(args[1]),
				Category: category,
			})
			if err != nil {
				return storeError(err)
			}
			a.render().OK(fmt.Sprintf("Added %s (%s, %s)", item.Name, item.Category, item.Price))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "Groceries", "category label")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the filtered list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := render.Number(a.store.FilteredItems())
			if search != "" {
				rows = searchRows(rows, search)
			}
			r := a.render()
			r.Filter(a.store.Filter())
			r.Items(rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show items whose name contains this text")
	return cmd
}

// searchRows narrows rows by name and keeps their view numbers.
func searchRows(rows []render.Row, term string) []render.Row {
	items := make([]core.Item, len(rows))
	for i, row := range rows {
		items[i] = row.Item
	}
	keep := map[string]bool{}
	for _, it := range core.Search(items, term) {
		keep[it.ID] = true
	}
	out := rows[:0:0]
	for _, row := range rows {
		if keep[row.Item.ID] {
			out = append(out, row)
		}
	}
	return out
}

func newEditCmd(a *app) *cobra.Command {
	var name, price, category string
	cmd := &cobra.Command{
		Use:   "edit <number|id>",
		Short: "Change an item's name, price or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.resolveItem(args[0])
			if err != nil {
				return err
			}

			var patch core.ItemPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("price") {
				m := parsePriceArg(price)
				patch.Price = &m
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change: pass --name, --price or --category")
			}

			if err := a.store.UpdateItem(item.ID, patch); err != nil {
				return storeError(err)
			}
			a.render().OK("Updated " + patch.Apply(item).Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <number|id>",
		Aliases: []string{"delete"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.resolveItem(args[0])
			if err != nil {
				return err
			}
			a.store.DeleteItem(item.ID)
			a.render().OK("Removed " + item.Name)
			return nil
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <number|id>",
		Short: "Mark an item purchased, or not purchased again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.resolveItem(args[0])
			if err != nil {
				return err
			}
			a.store.TogglePurchased(item.ID)
			state := "purchased"
			if item.Purchased {
				state = "not purchased"
			}
			a.render().OK(fmt.Sprintf("%s marked %s", item.Name, state))
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var purchasedOnly, yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item, or only purchased ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, what := 0, "item(s)"
			for _, it := range a.store.Items() {
				if !purchasedOnly || it.Purchased {
					count++
				}
			}
			if purchasedOnly {
				what = "purchased item(s)"
			}
			if count == 0 {
				a.render().Info("Nothing to remove.")
				return nil
			}
			if !yes && !a.confirm(fmt.Sprintf("Remove %d %s?", count, what)) {
				a.render().Info("Nothing removed.")
				return nil
			}

			var removed int
			if purchasedOnly {
				removed = a.store.ClearPurchased()
			} else {
				removed = a.store.ClearAll()
			}
			a.render().OK(fmt.Sprintf("Removed %d item(s)", removed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&purchasedOnly, "purchased", false, "only remove purchased items")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
