package events

import "time"

const TypeDutyAssigned = "duties.assigned.v1"

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID string `json:"id"`
	// Emitting service and version
	Producer *string   `json:"producer,omitempty"`
	Time     time.Time `json:"time"`
	// Event name and version, e.g. duties.assigned.v1
	Type string `json:"type"`
}

type DutyAssigned struct {
	DutyID    int64    `json:"duty_id"`
	ProjectID int64    `json:"project_id"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Assignees []string `json:"assignees"`
}
