package domain

import (
	"context"
	"errors"
)

var (
	// ErrIssueNotFound is returned when an issue cannot be located.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrContractNotFound is returned when a contract cannot be located.
	ErrContractNotFound = errors.New("contract not found")
	// ErrInvalidStatus is returned for statuses outside the Kanban enum.
	ErrInvalidStatus = errors.New("invalid issue status")
)

// IssueFilter narrows issue listings for the Kanban board.
type IssueFilter struct {
	ContractID string
	Status     string
	Category   string
	// StartDate/EndDate bound created_at, inclusive, as YYYY-MM-DD strings.
	StartDate string
	EndDate   string
}

// InspectionQuery selects inspection rows for the coverage grid.
// StartDate/EndDate are inclusive YYYY-MM-DD bounds on activity_date.
type InspectionQuery struct {
	ContractID     string
	ObjectiveID    *int64
	InspectionType string
	StartDate      string
	EndDate        string
}

// Store captures the persistence capabilities the core depends on:
// upsert by natural key, filtered selects, delete-by-filter and bulk
// insert. The postgres repository is the production implementation.
type Store interface {
	UpsertContract(ctx context.Context, contractID int64, name string) (*Contract, error)
	UpsertActivity(ctx context.Context, activity Activity) (*Activity, error)
	ReplaceIssues(ctx context.Context, activityID string, issues []Issue) (int, error)

	ListContracts(ctx context.Context) ([]Contract, error)
	ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error)
	UpdateIssueStatus(ctx context.Context, issueID string, status IssueStatus) (*Issue, error)
	UpdateIssueNotes(ctx context.Context, issueID string, notes string) (*Issue, error)

	ListInspections(ctx context.Context, query InspectionQuery) ([]InspectionRecord, error)
}
