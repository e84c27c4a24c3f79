package service

import (
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/google/uuid"
)

// Numbering holds the document number prefixes.
type Numbering struct {
	Proposal    string
	Invoice     string
	Project     string
	ChangeOrder string
}

func DefaultNumbering() Numbering {
	return Numbering{Proposal: "PRO", Invoice: "INV", Project: "PRJ", ChangeOrder: "CO"}
}

func formatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// Settings carries the tunables shared by the proposal and workflow services.
type Settings struct {
	Policy pricing.Policy
	// RejectNegativeAmounts turns on range checks for proposal amounts.
	RejectNegativeAmounts bool
	Numbering             Numbering
	Now                   func() time.Time
	NewID                 func() string
}

func DefaultSettings() Settings {
	return Settings{
		Policy:    pricing.DefaultPolicy(),
		Numbering: DefaultNumbering(),
	}
}

func (s Settings) withDefaults() Settings {
	if s.Now == nil {
		s.Now = func() time.Time { return time.Now().UTC() }
	}
	if s.NewID == nil {
		s.NewID = func() string { return uuid.New().String() }
	}
	if s.Policy.DefaultGeneralConditionsPct.IsZero() && s.Policy.FullTimeWeeklyRate.IsZero() {
		s.Policy = pricing.DefaultPolicy()
	}
	def := DefaultNumbering()
	if s.Numbering.Proposal == "" {
		s.Numbering.Proposal = def.Proposal
	}
	if s.Numbering.Invoice == "" {
		s.Numbering.Invoice = def.Invoice
	}
	if s.Numbering.Project == "" {
		s.Numbering.Project = def.Project
	}
	if s.Numbering.ChangeOrder == "" {
		s.Numbering.ChangeOrder = def.ChangeOrder
	}
	return s
}
