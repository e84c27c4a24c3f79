package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// foremanHuhTheme returns a huh theme matching the formatter palette.
func foremanHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// proposalFields is the raw text a user types for a proposal, before the
// amounts are coerced.
type proposalFields struct {
	Title            string
	ClientName       string
	GeneralCondPct   string
	SupervisionType  string
	SupervisionWeeks string
	Discount         string
	Items            []string
}

// draft coerces the raw fields into a service draft. Malformed amounts
// become zero; only a missing or malformed item is an error.
func (f proposalFields) draft() (service.ProposalDraft, error) {
	items := make([]domain.LineItem, 0, len(f.Items))
	for _, raw := range f.Items {
		li, err := parseLineItem(raw)
		if err != nil {
			return service.ProposalDraft{}, err
		}
		items = append(items, li)
	}
	return service.ProposalDraft{
		Title:                f.Title,
		ClientName:           f.ClientName,
		LineItems:            items,
		GeneralConditionsPct: f.GeneralCondPct,
		Supervision: domain.Supervision{
			Type:  pricing.ParseSupervisionType(f.SupervisionType),
			Weeks: pricing.ParseAmount(f.SupervisionWeeks),
		},
		Discount: pricing.ParseAmount(f.Discount),
	}, nil
}

// parseLineItem reads "name:quantity:unit price". The name may itself
// contain colons; the last two fields are always the amounts.
func parseLineItem(raw string) (domain.LineItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return domain.LineItem{}, fmt.Errorf("line item %q: use name:quantity:unit_price", raw)
	}
	n := len(parts)
	name := strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	if name == "" {
		return domain.LineItem{}, fmt.Errorf("line item %q: name is required", raw)
	}
	return pricing.LineItemFromStrings(name, strings.TrimSpace(parts[n-2]), strings.TrimSpace(parts[n-1])), nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// validateOptionalAmount accepts empty or anything ParseAmount reads as a
// non-negative number.
func validateOptionalAmount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return fmt.Errorf("enter a non-negative amount")
	}
	return nil
}

func validateItemLines(s string) error {
	lines := splitLines(s)
	if len(lines) == 0 {
		return fmt.Errorf("add at least one line item")
	}
	for _, l := range lines {
		if _, err := parseLineItem(l); err != nil {
			return err
		}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// wizardProposal creates the form used by "proposal create" on a terminal.
func wizardProposal(f *proposalFields) (*huh.Form, *string) {
	items := strings.Join(f.Items, "\n")
	if f.SupervisionType == "" {
		f.SupervisionType = string(domain.SupervisionNone)
	}
	form := huh.NewForm(
		huh.NewGroup(
			textInput("Title", "Kitchen remodel", &f.Title, validateRequired),
			textInput("Client", "Jane Doe", &f.ClientName, validateRequired),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Line items").
				Description("One per line: name:quantity:unit price").
				Placeholder("Cabinets:12:$450").
				Value(&items).
				Validate(validateItemLines),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Supervision").
				Options(
					huh.NewOption("None", string(domain.SupervisionNone)),
					huh.NewOption("Part time", string(domain.SupervisionPartTime)),
					huh.NewOption("Full time", string(domain.SupervisionFullTime)),
				).
				Value(&f.SupervisionType),
			textInput("Supervision weeks", "0", &f.SupervisionWeeks, validateOptionalAmount),
			textInput("General conditions % (blank for default)", "18.5", &f.GeneralCondPct, validateOptionalAmount),
			textInput("Discount", "0", &f.Discount, validateOptionalAmount),
		),
	).WithTheme(foremanHuhTheme()).WithShowHelp(false)
	return form, &items
}

// textInput returns a huh.Input with a title, placeholder and validator.
func textInput(title, placeholder string, value *string, validate func(string) error) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(validate)
}

// wizardConfirm creates a huh form for a yes/no confirmation.
func wizardConfirm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(foremanHuhTheme()).WithShowHelp(false)
}
