package importer

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImportSchema is the top-level JSON structure for proposal import.
type ImportSchema struct {
	Proposal    ProposalImport     `json:"proposal"`
	Supervision *SupervisionImport `json:"supervision,omitempty"`
	LineItems   []LineItemImport   `json:"line_items"`
}

// ProposalImport defines the proposal-level fields in the import file.
// Amounts are strings so "$1,200.00" style values survive unchanged.
type ProposalImport struct {
	Title                string `json:"title"`
	ClientName           string `json:"client_name"`
	GeneralConditionsPct string `json:"general_conditions_pct,omitempty"`
	Discount             string `json:"discount,omitempty"`
}

type SupervisionImport struct {
	Type  string `json:"type"`
	Weeks string `json:"weeks,omitempty"`
}

// LineItemImport defines one priced row in the import file.
type LineItemImport struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// LoadImportSchema reads and parses a proposal import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data)
}

// ParseImportSchema parses an in-memory import document.
func ParseImportSchema(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
