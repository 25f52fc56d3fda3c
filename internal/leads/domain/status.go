package domain

import (
	"fmt"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusContacted   Status = "contacted"
	StatusQualified   Status = "qualified"
	StatusUnqualified Status = "unqualified"
	StatusConverted   Status = "converted"
	StatusLost        Status = "lost"
)

// QualificationStatus tracks how far qualification has progressed.
type QualificationStatus string

const (
	QualificationNew         QualificationStatus = "new"
	QualificationContacted   QualificationStatus = "contacted"
	QualificationQualified   QualificationStatus = "qualified"
	QualificationUnqualified QualificationStatus = "unqualified"
)

var terminalStatuses = map[Status]bool{
	StatusConverted: true,
	StatusLost:      true,
}

// allowedStatusTransitions lists the forward moves. Lost is reachable from
// every non-terminal status and is handled separately.
var allowedStatusTransitions = map[Status][]Status{
	StatusNew:       {StatusContacted},
	StatusContacted: {StatusQualified, StatusUnqualified},
	StatusQualified: {StatusConverted},
}

// qualificationMirror maps statuses that have a qualification counterpart.
var qualificationMirror = map[Status]QualificationStatus{
	StatusNew:         QualificationNew,
	StatusContacted:   QualificationContacted,
	StatusQualified:   QualificationQualified,
	StatusUnqualified: QualificationUnqualified,
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusUnqualified, StatusConverted, StatusLost:
		return s, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown lead status %q", raw))
}

// IsTerminalStatus returns true for statuses that admit no further transitions.
func IsTerminalStatus(s Status) bool {
	return terminalStatuses[s]
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	if IsTerminalStatus(from) {
		return false
	}
	if to == StatusLost {
		return true
	}
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionStatus moves the lead to a new status.
// Converting requires customerID and stamps the conversion fields.
func TransitionStatus(lead Lead, to Status, customerID *uuid.UUID, now time.Time) (Lead, error) {
	if !CanTransition(lead.Status, to) {
		return lead, apperr.InvalidTransition(
			fmt.Sprintf("lead status cannot change from %s to %s", lead.Status, to),
		).WithDetails(map[string]string{"from": string(lead.Status), "to": string(to)})
	}

	if to == StatusConverted {
		if customerID == nil || *customerID == uuid.Nil {
			return lead, apperr.Validation("a target customer is required to convert a lead")
		}
		id := *customerID
		convertedAt := now
		lead.ConvertedToCustomer = true
		lead.ConvertedCustomerID = &id
		lead.ConvertedAt = &convertedAt
	}

	if mirror, ok := qualificationMirror[to]; ok {
		lead.QualificationStatus = mirror
	}
	if to == StatusContacted {
		contacted := now
		lead.LastContact = &contacted
	}

	lead.Status = to
	lead.UpdatedAt = now
	return lead, nil
}
