package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateProposal(&schema.Proposal)...)
	errs = append(errs, validateSupervision(schema.Supervision)...)
	errs = append(errs, validateLineItems(schema.LineItems)...)

	return errs
}

func validateProposal(p *ProposalImport) []error {
	var errs []error

	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, fmt.Errorf("proposal.title is required"))
	}
	if strings.TrimSpace(p.ClientName) == "" {
		errs = append(errs, fmt.Errorf("proposal.client_name is required"))
	}
	errs = append(errs, validateOptionalAmount("proposal.discount", p.Discount)...)

	return errs
}

func validateSupervision(s *SupervisionImport) []error {
	if s == nil {
		return nil
	}
	var errs []error

	kind := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s.Type)), "-", "_")
	if !domain.ValidSupervisionTypes[kind] {
		errs = append(errs, fmt.Errorf("supervision.type: invalid value %q", s.Type))
	} else if kind != string(domain.SupervisionNone) && strings.TrimSpace(s.Weeks) == "" {
		errs = append(errs, fmt.Errorf("supervision.weeks is required for %s supervision", s.Type))
	}
	errs = append(errs, validateOptionalAmount("supervision.weeks", s.Weeks)...)

	return errs
}

func validateLineItems(items []LineItemImport) []error {
	if len(items) == 0 {
		return []error{fmt.Errorf("line_items: at least one line item is required")}
	}
	var errs []error

	for i, li := range items {
		prefix := fmt.Sprintf("line_items[%d]", i)

		if strings.TrimSpace(li.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if strings.TrimSpace(li.Quantity) == "" {
			errs = append(errs, fmt.Errorf("%s.quantity is required", prefix))
		} else {
			errs = append(errs, validateOptionalAmount(prefix+".quantity", li.Quantity)...)
		}
		if strings.TrimSpace(li.UnitPrice) == "" {
			errs = append(errs, fmt.Errorf("%s.unit_price is required", prefix))
		} else {
			errs = append(errs, validateOptionalAmount(prefix+".unit_price", li.UnitPrice)...)
		}
	}

	return errs
}

// validateOptionalAmount rejects values the calculator would silently read as
// zero. Currency symbols and thousands separators are accepted.
func validateOptionalAmount(field, raw string) []error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "$")
	if _, err := decimal.NewFromString(strings.ReplaceAll(cleaned, ",", "")); err != nil {
		return []error{fmt.Errorf("%s: invalid amount %q", field, raw)}
	}
	return nil
}
