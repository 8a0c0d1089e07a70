// Package domain defines the core types shared across the siteboard service.
package domain

import "time"

// ActivityType classifies the kind of site activity recorded in a CSV export.
type ActivityType string

const (
	ActivityTypeInspection   ActivityType = "INSPECTION"
	ActivityTypeConstruction ActivityType = "CONSTRUCTION"
	ActivityTypeIntervention ActivityType = "INTERVENTION"
)

// IssueStatus tracks an issue across the Kanban board.
type IssueStatus string

const (
	IssueStatusIdentified IssueStatus = "identified"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusDone       IssueStatus = "done"
)

// ValidIssueStatus reports whether the value is one of the known statuses.
func ValidIssueStatus(value string) bool {
	switch IssueStatus(value) {
	case IssueStatusIdentified, IssueStatusInProgress, IssueStatusDone:
		return true
	}
	return false
}

// Contract is a construction contract upserted from CSV exports.
// ContractID is the external natural key; ID is the surrogate uuid.
type Contract struct {
	ID           string
	ContractID   int64
	ContractName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Activity is a single site activity row. External ActivityID is the
// upsert key; re-importing the same id overwrites the row. Stage, task
// and objective fields are nullable because raw exports often omit them.
type Activity struct {
	ID             string
	ActivityID     int64
	ContractID     string
	Type           ActivityType
	Verified       bool
	Contractors    *string
	InspectionType *string
	ActivityDate   *string
	ReportDate     *string
	StageID        *int64
	StageName      *string
	TaskID         *int64
	TaskName       *string
	ObjectiveID    *int64
	ObjectiveName  *string
	AddedByID      *int64
	AddedByName    *string
	RawData        map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Issue is derived from an inspection's identified-issues text; it is
// never imported directly. Issues for an activity are replaced wholesale
// on re-import, then mutated only by Kanban status moves and note edits.
type Issue struct {
	ID                 string
	ActivityID         string
	ContractID         string
	Title              string
	InspectionCategory string
	Status             IssueStatus
	ContractorAssigned *string
	Notes              *string
	CreatedBy          *string
	CreatedAt          string
	UpdatedAt          time.Time
	Metadata           map[string]any
}

// Objective is a distinct (id, name) pair observed among inspection
// records inside a query window; it is derived, never stored.
type Objective struct {
	ID   int64
	Name string
}

// InspectionRecord is the projection of an activity row used by the
// coverage grid.
type InspectionRecord struct {
	ActivityID     int64
	ObjectiveID    int64
	ObjectiveName  string
	InspectionType string
	ActivityDate   string
	Contractors    *string
	Verified       bool
	AddedByName    *string
	RawData        map[string]any
}
