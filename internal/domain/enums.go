package domain

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepFinished   StepStatus = "finished"
)

// ValidStepStatuses is the canonical set of accepted step status strings.
var ValidStepStatuses = map[string]bool{
	"pending": true, "in_progress": true, "finished": true,
}

// Started reports whether work has begun on a step with this status.
func (s StepStatus) Started() bool {
	return s == StepInProgress || s == StepFinished
}

type OwnerKind string

const (
	OwnerProject     OwnerKind = "project"
	OwnerChangeOrder OwnerKind = "change_order"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

type ManagementApproval string

const (
	ManagementPending  ManagementApproval = "pending"
	ManagementApproved ManagementApproval = "approved"
	ManagementRejected ManagementApproval = "rejected"
)

// ClientApproval is the client-facing approval track. The empty value means
// the proposal has not been released to the client yet.
type ClientApproval string

const (
	ClientNotReleased    ClientApproval = ""
	ClientPending        ClientApproval = "pending"
	ClientApproved       ClientApproval = "approved"
	ClientRejected       ClientApproval = "rejected"
	ClientRequestChanges ClientApproval = "request_changes"
)

type InvoiceStatus string

const (
	InvoicePending     InvoiceStatus = "pending"
	InvoicePartialPaid InvoiceStatus = "partial_paid"
	InvoicePaid        InvoiceStatus = "paid"
	InvoiceOverdue     InvoiceStatus = "overdue"
	InvoiceCancelled   InvoiceStatus = "cancelled"
)

type ChangeOrderStatus string

const (
	ChangeOrderPending  ChangeOrderStatus = "pending"
	ChangeOrderApproved ChangeOrderStatus = "approved"
	ChangeOrderRejected ChangeOrderStatus = "rejected"
)

type SupervisionType string

const (
	SupervisionNone     SupervisionType = "none"
	SupervisionPartTime SupervisionType = "part_time"
	SupervisionFullTime SupervisionType = "full_time"
)

// ValidSupervisionTypes is the canonical set of accepted supervision strings.
var ValidSupervisionTypes = map[string]bool{
	"none": true, "part_time": true, "full_time": true,
}

type ActorRole string

const (
	RoleAdmin   ActorRole = "admin"
	RoleManager ActorRole = "manager"
	RoleStaff   ActorRole = "staff"
	RoleClient  ActorRole = "client"
)
