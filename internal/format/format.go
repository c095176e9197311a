// Package format renders search results as human-readable text.
package format

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"mix-optimizer/internal/mixer"
)

var (
	heading = lipgloss.NewStyle().Bold(true)
	marked  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	money   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// DisableColor renders every style as plain text. lipgloss already does this
// when stdout is not a terminal.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Arrow joins recipe steps.
const Arrow = " → "

// Text is pre-rendered output. It satisfies fmt.Stringer so the serializer's
// text format can write it.
type Text string

func (t Text) String() string { return string(t) }

// Path renders a path result: the recipe, the achieved effects with desired
// ones marked by *, and search statistics.
func Path(r *mixer.PathResult) string {
	var b strings.Builder

	if len(r.Recipe) == 0 {
		fmt.Fprintf(&b, "%s already satisfied, no ingredients needed\n", heading.Render("Recipe:"))
	} else {
		fmt.Fprintf(&b, "%s %s\n", heading.Render("Recipe:"), strings.Join(r.Recipe, Arrow))
	}

	effects := make([]string, len(r.Effects))
	achieved := 0
	for i, e := range r.Effects {
		if slices.Contains(r.Desired, e) {
			effects[i] = marked.Render(e + "*")
			achieved++
			continue
		}
		effects[i] = e
	}
	fmt.Fprintf(&b, "%s %s\n", heading.Render("Effects:"), strings.Join(effects, ", "))
	fmt.Fprintf(&b, "%s %d/%d desired, %d steps, %d states expanded\n",
		dim.Render("Stats:"), achieved, len(r.Desired), r.Steps(), r.Expanded)

	return b.String()
}

// Profit renders an optimize result.
func Profit(r *mixer.ProfitResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", heading.Render(fmt.Sprintf("Best combination for %s (depth %d)", r.Product, r.Depth)))
	if len(r.Initial) > 0 {
		fmt.Fprintf(&b, "Starting effects: %s\n", strings.Join(r.Initial, ", "))
	}
	fmt.Fprintf(&b, "Production cost:  %s\n", money.Render(dollars(r.ProductionCost)))
	fmt.Fprintf(&b, "Ingredient cost:  %s\n", money.Render(dollars(r.IngredientCost)))
	fmt.Fprintf(&b, "Total cost:       %s\n", money.Render(dollars(r.TotalCost)))
	fmt.Fprintf(&b, "Value:            %s\n", money.Render(dollars(r.Value)))
	fmt.Fprintf(&b, "Profit:           %s\n", marked.Render(dollars(r.Profit)))

	effects := make([]string, len(r.Effects))
	for i, e := range r.Effects {
		effects[i] = fmt.Sprintf("%s (×%.2f)", e.Name, e.Multiplier)
	}
	if len(effects) == 0 {
		effects = []string{dim.Render("none")}
	}
	fmt.Fprintf(&b, "Effects: %s\n", strings.Join(effects, ", "))

	if len(r.Recipe) == 0 {
		fmt.Fprintf(&b, "Recipe: %s\n", dim.Render("sell as is"))
	} else {
		fmt.Fprintf(&b, "Recipe: %s\n", strings.Join(r.Recipe, Arrow))
	}
	fmt.Fprintf(&b, "%s\n", dim.Render(fmt.Sprintf("%d states expanded", r.Expanded)))

	return b.String()
}

// Mix renders a replayed recipe.
func Mix(r *mixer.MixResult) string {
	var b strings.Builder
	if len(r.Initial) > 0 {
		fmt.Fprintf(&b, "Starting effects: %s\n", strings.Join(r.Initial, ", "))
	}
	fmt.Fprintf(&b, "%s %s\n", heading.Render("Recipe:"), strings.Join(r.Recipe, Arrow))
	for i, st := range r.Steps {
		var parts []string
		for _, c := range st.Changes {
			parts = append(parts, c.From+Arrow+c.To)
		}
		if st.Added != "" {
			parts = append(parts, "+"+st.Added)
		}
		if len(parts) == 0 {
			parts = []string{dim.Render("no change")}
		}
		fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, st.Ingredient, strings.Join(parts, ", "))
	}
	effects := strings.Join(r.Effects, ", ")
	if len(r.Effects) == 0 {
		effects = dim.Render("none")
	}
	fmt.Fprintf(&b, "%s %s\n", heading.Render("Effects:"), effects)
	fmt.Fprintf(&b, "Ingredient cost: %s\n", money.Render(dollars(r.IngredientCost)))
	return b.String()
}

// Effects renders a numbered effect list. Numbers are 1-based IDs accepted
// wherever an effect name is.
func Effects(names []string) string {
	var b strings.Builder
	width := len(fmt.Sprint(len(names)))
	for i, name := range names {
		fmt.Fprintf(&b, "%s %s\n", dim.Render(fmt.Sprintf("%*d:", width, i+1)), name)
	}
	return b.String()
}

func dollars(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
