// Package audit records who did what to which registration. Events append
// synchronously to an outbox store (fail-closed: a workflow mutation does not
// report success if its audit write failed) and a background worker publishes
// the outbox to Kafka for downstream consumers.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies an auditable operation.
type Action string

const (
	ActionRegistrationCreated     Action = "registration.created"
	ActionRegistrationTransition  Action = "registration.status_changed"
	ActionRegistrationAssigned    Action = "registration.assigned"
	ActionRegistrationResubmitted Action = "registration.resubmitted"
	ActionOTPRequested            Action = "auth.otp_requested"
	ActionOTPVerified             Action = "auth.otp_verified"
	ActionLoginSucceeded          Action = "auth.login_succeeded"
	ActionLoginFailed             Action = "auth.login_failed"
	ActionUserCreated             Action = "user.created"
	ActionBranchCreated           Action = "branch.created"
)

// Event is one audit trail entry. Entity references are plain strings so the
// package stays free of feature-model imports.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Action         Action    `json:"action"`
	ActorID        string    `json:"actor_id,omitempty"`
	ActorRole      string    `json:"actor_role,omitempty"`
	ActorName      string    `json:"actor_name,omitempty"`
	RegistrationID string    `json:"registration_id,omitempty"`
	MemberID       string    `json:"member_id,omitempty"`
	BranchID       string    `json:"branch_id,omitempty"`
	FromStatus     string    `json:"from_status,omitempty"`
	ToStatus       string    `json:"to_status,omitempty"`
	Note           string    `json:"note,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	// Device is a parsed user-agent summary ("Chrome 126 / Windows"), not
	// the raw header.
	Device    string    `json:"device,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
