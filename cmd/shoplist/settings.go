package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"shoplist/internal/core"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <label>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := a.store.AddCategory(args[0])
				switch {
				case errors.Is(err, core.ErrEmptyCategory):
					return errors.New("category name is required")
				case errors.Is(err, core.ErrDuplicateCategory):
					return errors.New("category " + strings.TrimSpace(args[0]) + " already exists")
				case err != nil:
					return err
				}
				a.render().OK("Added category " + strings.TrimSpace(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List categories",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a.render().Categories(a.store.Categories())
				return nil
			},
		},
	)
	return cmd
}

func newFilterCmd(a *app) *cobra.Command {
	var category, sortBy string
	var showPurchased bool
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show or change the category filter, purchased visibility and sort order",
		Example: `  shoplist filter --category Groceries --sort price
  shoplist filter --show-purchased=false
  shoplist filter --category all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.FilterPatch
			changed := false
			if cmd.Flags().Changed("category") {
				c := strings.TrimSpace(category)
				if c == "" {
					c = core.AllCategories
				}
				patch.Category = &c
				changed = true
			}
			if cmd.Flags().Changed("show-purchased") {
				patch.ShowPurchased = &showPurchased
				changed = true
			}
			if cmd.Flags().Changed("sort") {
				sb, err := core.ParseSortBy(sortBy)
				if err != nil {
					return err
				}
				patch.SortBy = &sb
				changed = true
			}
			if changed {
				a.store.SetFilter(patch)
			}
			a.render().Filter(a.store.Filter())
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", `category to show, or "all"`)
	cmd.Flags().BoolVar(&showPurchased, "show-purchased", true, "include purchased items")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by name, price, category or date")
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the dark and light palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "light"
			if a.store.ToggleDarkMode() {
				mode = "dark"
			}
			a.render().OK("Theme set to " + mode)
			return nil
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Aliases: []string{"totals"},
		Short:   "Show item counts and running totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.render().Summary(a.store.Summary())
			return nil
		},
	}
}
