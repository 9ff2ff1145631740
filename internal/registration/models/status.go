package models

import "takaful/pkg/domain"

// Status is the registration review state. Exactly one status is active per
// registration at any time; the value is never empty once the record exists.
type Status string

const (
	StatusProfileIncomplete   Status = "profile_incomplete"
	StatusPendingDocuments    Status = "pending_documents"
	StatusPendingReview       Status = "pending_review"
	StatusUnderEmployeeReview Status = "under_employee_review"
	StatusUnderManagerReview  Status = "under_manager_review"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusNeedsCorrection     Status = "needs_correction"
)

// statusLabels maps each status onto its Arabic display label.
var statusLabels = map[Status]string{
	StatusProfileIncomplete:   "الملف الشخصي غير مكتمل",
	StatusPendingDocuments:    "بانتظار المستندات",
	StatusPendingReview:       "قيد المراجعة",
	StatusUnderEmployeeReview: "قيد مراجعة الموظف",
	StatusUnderManagerReview:  "قيد مراجعة مدير الفرع",
	StatusApproved:            "مقبول",
	StatusRejected:            "مرفوض",
	StatusNeedsCorrection:     "يتطلب تصحيح",
}

// Label returns the display label for the status. Unknown values echo the raw
// string; callers treat that as an "unknown status" signal, not a crash.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports membership in the closed status set.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether the status ends the submission cycle. A rejected
// registration stays rejected; only needs_correction cycles back.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// NoteRule states whether a transition carries a note and whether it may be
// left empty.
type NoteRule int

const (
	NoteNone NoteRule = iota
	NoteOptional
	NoteRequired
)

type transitionKey struct {
	From  Status
	Actor domain.Role
	To    Status
}

// transitions is the single authoritative legality table. Every status
// mutation in the system consults it; there is no other path to a new status.
var transitions = map[transitionKey]NoteRule{
	// Beneficiary-side progression.
	{StatusProfileIncomplete, domain.RoleBeneficiary, StatusPendingDocuments}: NoteNone,
	{StatusPendingDocuments, domain.RoleBeneficiary, StatusPendingReview}:     NoteNone,
	// Resubmission after correction re-enters at pending_review.
	{StatusNeedsCorrection, domain.RoleBeneficiary, StatusPendingReview}: NoteNone,

	// Branch manager triage of freshly submitted registrations.
	{StatusPendingReview, domain.RoleBranchManager, StatusUnderEmployeeReview}: NoteNone,
	{StatusPendingReview, domain.RoleBranchManager, StatusApproved}:            NoteOptional,
	{StatusPendingReview, domain.RoleBranchManager, StatusRejected}:            NoteRequired,
	{StatusPendingReview, domain.RoleBranchManager, StatusNeedsCorrection}:     NoteRequired,

	// Employee review of assigned registrations.
	{StatusUnderEmployeeReview, domain.RoleEmployee, StatusUnderManagerReview}: NoteOptional,
	{StatusUnderEmployeeReview, domain.RoleEmployee, StatusApproved}:           NoteOptional,
	{StatusUnderEmployeeReview, domain.RoleEmployee, StatusRejected}:           NoteRequired,
	{StatusUnderEmployeeReview, domain.RoleEmployee, StatusNeedsCorrection}:    NoteRequired,

	// Branch manager final decision after employee escalation.
	{StatusUnderManagerReview, domain.RoleBranchManager, StatusApproved}:        NoteOptional,
	{StatusUnderManagerReview, domain.RoleBranchManager, StatusRejected}:        NoteRequired,
	{StatusUnderManagerReview, domain.RoleBranchManager, StatusNeedsCorrection}: NoteRequired,
}

// TransitionRule looks up the legality of a (from, actor, to) tuple. The
// second return value reports whether the transition exists at all.
func TransitionRule(from Status, actor domain.Role, to Status) (NoteRule, bool) {
	rule, ok := transitions[transitionKey{From: from, Actor: actor, To: to}]
	return rule, ok
}

// AllowedTargets lists the statuses the actor may move a registration to from
// the given status. Review surfaces render exactly these as actions.
func AllowedTargets(from Status, actor domain.Role) []Status {
	// Fixed iteration order keeps responses stable for the UI.
	order := []Status{
		StatusPendingDocuments,
		StatusPendingReview,
		StatusUnderEmployeeReview,
		StatusUnderManagerReview,
		StatusApproved,
		StatusRejected,
		StatusNeedsCorrection,
	}
	var out []Status
	for _, to := range order {
		if _, ok := transitions[transitionKey{From: from, Actor: actor, To: to}]; ok {
			out = append(out, to)
		}
	}
	return out
}
