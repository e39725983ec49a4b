// Package audit records what the certificate pipeline did, for whom.
package audit

import (
	"context"
	"time"

	id "certgen/pkg/domain"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventCertificateIssued       AuditEvent = "certificate_issued"
	EventCertificateFailed       AuditEvent = "certificate_failed"
	EventBatchCompleted          AuditEvent = "batch_completed"
	EventApprovedBundleGenerated AuditEvent = "approved_bundle_generated"
)

// Event is emitted from domain logic. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp    time.Time  `json:"timestamp"`
	OwnerID      id.OwnerID `json:"owner_id"`
	Action       string     `json:"action"`
	Organization string     `json:"organization,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
	// Subject is the certificate ID, or the subject's name when no ID was
	// derived.
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Count     int    `json:"count,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store persists or forwards events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByOwner(ctx context.Context, ownerID id.OwnerID) ([]Event, error)
}
