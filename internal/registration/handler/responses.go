package handler

import (
	"time"

	"takaful/internal/registration/models"
)

// RegistrationResponse is the wire representation of a registration. Status
// ships with its Arabic display label, and AllowedActions lists exactly the
// transitions the requesting actor may perform so clients render buttons
// without re-implementing the legality table.
type RegistrationResponse struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	BranchID    string `json:"branch_id"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`

	FullName         string `json:"full_name"`
	NationalID       string `json:"national_id"`
	Phone            string `json:"phone"`
	Email            string `json:"email,omitempty"`
	City             string `json:"city,omitempty"`
	DisabilityType   string `json:"disability_type,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`

	EmployeeNotes        string     `json:"employee_notes,omitempty"`
	ManagerNotes         string     `json:"manager_notes,omitempty"`
	RejectionReason      string     `json:"rejection_reason,omitempty"`
	EmployeeReviewDate   *time.Time `json:"employee_review_date,omitempty"`
	ManagerReviewDate    *time.Time `json:"manager_review_date,omitempty"`
	EmployeeReviewerName string     `json:"employee_reviewer_name,omitempty"`
	ManagerReviewerName  string     `json:"manager_reviewer_name,omitempty"`

	AssignedTo   string     `json:"assigned_to,omitempty"`
	AssignedDate *time.Time `json:"assigned_date,omitempty"`

	ProfileCompletion int        `json:"profile_completion"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	AllowedActions []ActionResponse `json:"allowed_actions"`
}

// ActionResponse is one transition the actor may perform, with its label.
type ActionResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// ListResponse wraps a registration collection.
type ListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Total         int                    `json:"total"`
}

// FromRegistration builds the response for one registration as seen by the
// given actor.
func FromRegistration(reg *models.Registration, actions []models.Status) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                   reg.ID.String(),
		MemberID:             reg.MemberID.String(),
		BranchID:             reg.BranchID.String(),
		Status:               string(reg.Status),
		StatusLabel:          reg.Status.Label(),
		FullName:             reg.FullName,
		NationalID:           reg.NationalID,
		Phone:                reg.Phone,
		Email:                reg.Email,
		City:                 reg.City,
		DisabilityType:       reg.DisabilityType,
		EmploymentStatus:     reg.EmploymentStatus,
		EmployeeNotes:        reg.EmployeeNotes,
		ManagerNotes:         reg.ManagerNotes,
		RejectionReason:      reg.RejectionReason,
		EmployeeReviewDate:   reg.EmployeeReviewDate,
		ManagerReviewDate:    reg.ManagerReviewDate,
		EmployeeReviewerName: reg.EmployeeReviewerName,
		ManagerReviewerName:  reg.ManagerReviewerName,
		AssignedDate:         reg.AssignedDate,
		ProfileCompletion:    reg.ProfileCompletion,
		SubmittedAt:          reg.SubmittedAt,
		CreatedAt:            reg.CreatedAt,
		UpdatedAt:            reg.UpdatedAt,
		AllowedActions:       make([]ActionResponse, 0, len(actions)),
	}
	if !reg.AssignedTo.IsNil() {
		resp.AssignedTo = reg.AssignedTo.String()
	}
	for _, a := range actions {
		resp.AllowedActions = append(resp.AllowedActions, ActionResponse{
			Status: string(a),
			Label:  a.Label(),
		})
	}
	return resp
}

// FromRegistrations builds the list response for the actor's view.
func FromRegistrations(regs []*models.Registration, actionsFor func(*models.Registration) []models.Status) ListResponse {
	out := ListResponse{
		Registrations: make([]RegistrationResponse, 0, len(regs)),
		Total:         len(regs),
	}
	for _, reg := range regs {
		out.Registrations = append(out.Registrations, FromRegistration(reg, actionsFor(reg)))
	}
	return out
}
