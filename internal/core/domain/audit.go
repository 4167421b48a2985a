package domain

import "time"

// AuditAction is the kind of change recorded in an audit entry.
type AuditAction string

const (
	AuditCreate    AuditAction = "CREATE"
	AuditUpdate    AuditAction = "UPDATE"
	AuditPost      AuditAction = "POST"
	AuditReverse   AuditAction = "REVERSE"
	AuditApprove   AuditAction = "APPROVE"
	AuditAllocate  AuditAction = "ALLOCATE"
	AuditClose     AuditAction = "CLOSE"
	AuditReconcile AuditAction = "RECONCILE"
	AuditImport    AuditAction = "IMPORT"
)

// AuditEntry describes one state change for the external audit log.
type AuditEntry struct {
	EntityType     string      `json:"entityType"`
	EntityID       string      `json:"entityID"`
	Action         AuditAction `json:"action"`
	OldValues      any         `json:"oldValues,omitempty"`
	NewValues      any         `json:"newValues,omitempty"`
	OrganizationID string      `json:"organizationID"`
	UserID         string      `json:"userID"`
	OccurredAt     time.Time   `json:"occurredAt"`
}

// Notification is a message for people responsible for an organization.
type Notification struct {
	OrganizationID string         `json:"organizationID"`
	Subject        string         `json:"subject"`
	Body           string         `json:"body"`
	Severity       string         `json:"severity"`
	Data           map[string]any `json:"data,omitempty"`
}

// BatchFailure names an item a batch job could not process.
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult counts the outcome of a batch job run.
type BatchResult struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// Success records a processed item.
func (r *BatchResult) Success() {
	r.Processed++
	r.Succeeded++
}

// Failure records an item that failed with err.
func (r *BatchResult) Failure(id string, err error) {
	r.Processed++
	r.Failed++
	r.Failures = append(r.Failures, BatchFailure{ID: id, Reason: err.Error()})
}

// Skip records an item another worker already picked up. It is not counted as
// processed.
func (r *BatchResult) Skip() {
	r.Skipped++
}

// Merge adds other's counts into r.
func (r *BatchResult) Merge(other BatchResult) {
	r.Processed += other.Processed
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
}
