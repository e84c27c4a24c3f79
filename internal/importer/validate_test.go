package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimalSchema() *ImportSchema {
	return &ImportSchema{
		Proposal: ProposalImport{
			Title:      "Kitchen remodel",
			ClientName: "Dana Ruiz",
		},
		LineItems: []LineItemImport{
			{Name: "Demolition", Quantity: "1", UnitPrice: "1000"},
		},
	}
}

func TestValidateImportSchema_ValidMinimal(t *testing.T) {
	errs := ValidateImportSchema(validMinimalSchema())
	assert.Empty(t, errs)
}

func TestValidateImportSchema_ValidFull(t *testing.T) {
	schema := &ImportSchema{
		Proposal: ProposalImport{
			Title:                "Basement finish",
			ClientName:           "Acme Holdings",
			GeneralConditionsPct: "12",
			Discount:             "$250.00",
		},
		Supervision: &SupervisionImport{Type: "Part-Time", Weeks: "4"},
		LineItems: []LineItemImport{
			{Name: "Framing", Quantity: "2", UnitPrice: "$1,250.50"},
			{Name: "Drywall", Quantity: "10", UnitPrice: "85"},
		},
	}
	assert.Empty(t, ValidateImportSchema(schema))
}

func TestValidateImportSchema_MissingRequiredFields(t *testing.T) {
	schema := &ImportSchema{
		LineItems: []LineItemImport{{}},
	}
	errs := ValidateImportSchema(schema)

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	assert.Contains(t, msgs, "proposal.title is required")
	assert.Contains(t, msgs, "proposal.client_name is required")
	assert.Contains(t, msgs, "line_items[0].name is required")
	assert.Contains(t, msgs, "line_items[0].quantity is required")
	assert.Contains(t, msgs, "line_items[0].unit_price is required")
}

func TestValidateImportSchema_NoLineItems(t *testing.T) {
	schema := validMinimalSchema()
	schema.LineItems = nil

	errs := ValidateImportSchema(schema)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at least one line item")
}

func TestValidateImportSchema_MalformedAmounts(t *testing.T) {
	schema := validMinimalSchema()
	schema.Proposal.Discount = "ten dollars"
	schema.LineItems[0].UnitPrice = "12x"

	errs := ValidateImportSchema(schema)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "proposal.discount")
	assert.Contains(t, errs[1].Error(), "line_items[0].unit_price")
}

func TestValidateImportSchema_Supervision(t *testing.T) {
	schema := validMinimalSchema()
	schema.Supervision = &SupervisionImport{Type: "weekends"}
	errs := ValidateImportSchema(schema)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "supervision.type")

	schema.Supervision = &SupervisionImport{Type: "full_time"}
	errs = ValidateImportSchema(schema)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "supervision.weeks is required")

	schema.Supervision = &SupervisionImport{Type: "none"}
	assert.Empty(t, ValidateImportSchema(schema))
}

func TestParseImportSchema_InvalidJSON(t *testing.T) {
	_, err := ParseImportSchema([]byte(`{"proposal": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing import file")
}
