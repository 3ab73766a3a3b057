// Package render draws store views for the terminal.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shoplist/internal/core"
)

const (
	boxChecked   = "☑"
	boxUnchecked = "☐"
)

// Theme is the palette used by a Renderer.
type Theme struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Pending lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Done    lipgloss.Style
	Border  lipgloss.Color
}

func newTheme(r *lipgloss.Renderer, dark bool) Theme {
	t := Theme{
		Title: r.NewStyle().Bold(true),
		Muted: r.NewStyle().Faint(true),
		Error: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Done:  r.NewStyle().Faint(true).Strikethrough(true),
	}
	if dark {
		t.Success = r.NewStyle().Foreground(lipgloss.Color("42"))
		t.Pending = r.NewStyle().Foreground(lipgloss.Color("214"))
		t.Accent = r.NewStyle().Foreground(lipgloss.Color("12"))
		t.Border = lipgloss.Color("8")
	} else {
		t.Success = r.NewStyle().Foreground(lipgloss.Color("28"))
		t.Pending = r.NewStyle().Foreground(lipgloss.Color("130"))
		t.Accent = r.NewStyle().Foreground(lipgloss.Color("25"))
		t.Border = lipgloss.Color("250")
	}
	return t
}

// Renderer writes styled output to w. Colours are dropped automatically
// when w is not a terminal.
type Renderer struct {
	w     io.Writer
	r     *lipgloss.Renderer
	theme Theme
}

// New returns a Renderer using the dark or light palette.
func New(w io.Writer, dark bool) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{w: w, r: r, theme: newTheme(r, dark)}
}

// OK prints a success line.
func (r *Renderer) OK(msg string) {
	fmt.Fprintln(r.w, r.theme.Success.Render("✔ "+msg))
}

// Fail prints an error line.
func (r *Renderer) Fail(msg string) {
	fmt.Fprintln(r.w, r.theme.Error.Render("✖ "+msg))
}

// Info prints a muted line.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.w, r.theme.Muted.Render(msg))
}

func (r *Renderer) panel(lines []string) string {
	border := r.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(r.theme.Border).
		Padding(0, 1)
	return border.Render(strings.Join(lines, "\n"))
}

// Row is an item with the 1-based number the CLI accepts as a reference.
type Row struct {
	Number int
	Item   core.Item
}

// Number assigns positions 1..n to items.
func Number(items []core.Item) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{Number: i + 1, Item: it}
	}
	return rows
}

// Items prints the rows as a table.
func (r *Renderer) Items(rows []Row) {
	if len(rows) == 0 {
		r.Info("No items.")
		return
	}

	nameW, catW, priceW, numW := len("Name"), len("Category"), len("Price"), 1
	for _, row := range rows {
		nameW = max(nameW, lipgloss.Width(row.Item.Name))
		catW = max(catW, lipgloss.Width(row.Item.Category))
		priceW = max(priceW, len(row.Item.Price.String()))
		numW = max(numW, len(strconv.Itoa(row.Number)))
	}

	nameCol := r.r.NewStyle().Width(nameW)
	catCol := r.r.NewStyle().Width(catW)
	priceCol := r.r.NewStyle().Width(priceW).Align(lipgloss.Right)

	lines := []string{r.theme.Title.Render(fmt.Sprintf("%*s   %s  %s  %s",
		numW, "#", nameCol.Render("Name"), catCol.Render("Category"), priceCol.Render("Price")))}
	for _, row := range rows {
		it := row.Item
		box, name := boxUnchecked, r.theme.Pending.Render(it.Name)
		if it.Purchased {
			box, name = boxChecked, r.theme.Done.Render(it.Name)
		}
		lines = append(lines, fmt.Sprintf("%*d %s %s  %s  %s",
			numW, row.Number, box,
			nameCol.Render(name),
			catCol.Render(r.theme.Accent.Render(it.Category)),
			priceCol.Render(it.Price.String())))
	}
	fmt.Fprintln(r.w, r.panel(lines))
}

// Summary prints totals and a purchased-progress bar.
func (r *Renderer) Summary(s core.Summary) {
	lines := []string{
		r.theme.Title.Render("Summary"),
		fmt.Sprintf("Items      %d (%d purchased, %d remaining)", s.Items, s.PurchasedItems, s.RemainingItems),
		fmt.Sprintf("Total      %s", s.TotalCost),
		r.theme.Success.Render(fmt.Sprintf("Purchased  %s", s.PurchasedCost)),
		r.theme.Pending.Render(fmt.Sprintf("Remaining  %s", s.RemainingCost)),
		ProgressBar(s.PurchasedItems, s.Items, 28),
	}
	if len(s.ByCategory) > 0 {
		lines = append(lines, "", r.theme.Title.Render("By category"))
		w := 0
		for _, c := range s.ByCategory {
			w = max(w, lipgloss.Width(c.Name))
		}
		for _, c := range s.ByCategory {
			lines = append(lines, fmt.Sprintf("%-*s  %s (%d)", w, c.Name, c.Amount, c.Count))
		}
	}
	fmt.Fprintln(r.w, r.panel(lines))
}

// Categories prints the category set in order.
func (r *Renderer) Categories(cats []string) {
	lines := make([]string, 0, len(cats)+1)
	lines = append(lines, r.theme.Title.Render("Categories"))
	for _, c := range cats {
		lines = append(lines, "• "+r.theme.Accent.Render(c))
	}
	fmt.Fprintln(r.w, r.panel(lines))
}

// Filter prints the current filter selection.
func (r *Renderer) Filter(f core.Filter) {
	shown := "shown"
	if !f.ShowPurchased {
		shown = "hidden"
	}
	fmt.Fprintln(r.w, r.theme.Muted.Render(fmt.Sprintf("category: %s · purchased: %s · sort: %s", f.Category, shown, f.SortBy)))
}

// ProgressBar draws done out of total as a fixed-width bar.
func ProgressBar(done, total, width int) string {
	denom := total
	if denom == 0 {
		denom = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(denom) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}
