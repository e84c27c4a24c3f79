package importer

import (
	"strings"
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/google/uuid"
)

// Convert transforms a validated ImportSchema into a draft proposal. The
// number and total are assigned when the proposal is saved.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, actor domain.Actor) *domain.Proposal {
	now := time.Now().UTC()

	items := make([]domain.LineItem, 0, len(schema.LineItems))
	for _, li := range schema.LineItems {
		items = append(items, pricing.LineItemFromStrings(strings.TrimSpace(li.Name), li.Quantity, li.UnitPrice))
	}

	sup := domain.Supervision{Type: domain.SupervisionNone}
	if schema.Supervision != nil {
		sup.Type = pricing.ParseSupervisionType(schema.Supervision.Type)
		sup.Weeks = pricing.ParseAmount(schema.Supervision.Weeks)
	}

	return &domain.Proposal{
		ID:                   uuid.New().String(),
		Title:                strings.TrimSpace(schema.Proposal.Title),
		ClientName:           strings.TrimSpace(schema.Proposal.ClientName),
		LineItems:            items,
		GeneralConditionsPct: strings.TrimSpace(schema.Proposal.GeneralConditionsPct),
		Supervision:          sup,
		Discount:             pricing.ParseAmount(schema.Proposal.Discount),
		ManagementApproval:   domain.ManagementPending,
		ClientApproval:       domain.ClientNotReleased,
		CreatedBy:            actor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
