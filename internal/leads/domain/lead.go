// Package domain holds the lead aggregate and the pure rules of its lifecycle:
// status transitions, stage progression, scoring, readiness and assignment.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a captured prospect moving through qualification.
type Lead struct {
	ID                  uuid.UUID           `json:"id"`
	OrganizationID      uuid.UUID           `json:"organizationId"`
	FirstName           string              `json:"firstName"`
	LastName            string              `json:"lastName"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	Mobile              string              `json:"mobile"`
	JobTitle            string              `json:"jobTitle"`
	CompanyName         string              `json:"companyName"`
	Industry            string              `json:"industry"`
	CompanySize         string              `json:"companySize"`
	Source              string              `json:"source"`
	Campaign            string              `json:"campaign"`
	BudgetRange         string              `json:"budgetRange"`
	Timeline            string              `json:"timeline"`
	LeadScore           int                 `json:"leadScore"`
	QualificationStatus QualificationStatus `json:"qualificationStatus"`
	Stage               Stage               `json:"stage"`
	Status              Status              `json:"status"`
	AssignedTo          *uuid.UUID          `json:"assignedTo,omitempty"`
	NextFollowUp        *time.Time          `json:"nextFollowUp,omitempty"`
	LastContact         *time.Time          `json:"lastContact,omitempty"`
	ConvertedToCustomer bool                `json:"convertedToCustomer"`
	ConvertedCustomerID *uuid.UUID          `json:"convertedCustomerId,omitempty"`
	ConvertedAt         *time.Time          `json:"convertedAt,omitempty"`
	Notes               string              `json:"notes"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// NewLead returns a freshly captured lead: status new, stage awareness, score 0.
func NewLead(orgID uuid.UUID, now time.Time) Lead {
	return Lead{
		ID:                  uuid.New(),
		OrganizationID:      orgID,
		Status:              StatusNew,
		QualificationStatus: QualificationNew,
		Stage:               StageAwareness,
		LeadScore:           0,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// DisplayName prefers the person, then the company.
func (l Lead) DisplayName() string {
	if name := l.FullName(); name != "" {
		return name
	}
	return l.CompanyName
}

// IsTerminal reports whether the lead can no longer change status or stage.
func (l Lead) IsTerminal() bool {
	return IsTerminalStatus(l.Status)
}

// HasContactChannel reports whether the lead can be reached at all.
func (l Lead) HasContactChannel() bool {
	return strings.TrimSpace(l.Email) != "" ||
		strings.TrimSpace(l.Phone) != "" ||
		strings.TrimSpace(l.Mobile) != ""
}
