package handler

import (
	"strings"

	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

// UpdateStatusRequest is the HTTP request body for POST /registrations/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`

	// Parsed values (populated by Validate)
	parsedStatus models.Status
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		return dErrors.New(dErrors.CodeBadRequest, "status is required")
	}
	status := models.Status(r.Status)
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown status: %s", r.Status)
	}
	r.parsedStatus = status

	if len(r.Note) > 2000 {
		return dErrors.New(dErrors.CodeBadRequest, "note must be at most 2000 characters")
	}
	return nil
}

// ParsedStatus returns the validated target status.
func (r *UpdateStatusRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}

// AssignRequest is the HTTP request body for POST /registrations/{id}/assign.
type AssignRequest struct {
	EmployeeID string `json:"employee_id"`

	parsedEmployeeID domain.UserID
}

func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	if r.EmployeeID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "employee_id is required")
	}
	id, err := domain.ParseUserID(r.EmployeeID)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "employee_id must be a valid UUID")
	}
	r.parsedEmployeeID = id
	return nil
}

// ParsedEmployeeID returns the validated employee ID.
func (r *AssignRequest) ParsedEmployeeID() domain.UserID {
	return r.parsedEmployeeID
}

