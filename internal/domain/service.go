package domain

import (
	"context"
	"fmt"
	"strings"
)

// Service orchestrates contract and issue workflows on top of the Store.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListContracts returns all known contracts for the selector.
func (s *Service) ListContracts(ctx context.Context) ([]Contract, error) {
	return s.store.ListContracts(ctx)
}

// ListIssues returns issues matching the filter, newest first.
func (s *Service) ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	if filter.Status != "" && !ValidIssueStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	return s.store.ListIssues(ctx, filter)
}

// MoveIssue transitions an issue to a new Kanban column.
func (s *Service) MoveIssue(ctx context.Context, issueID, status string) (*Issue, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, ErrIssueNotFound
	}
	if !ValidIssueStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.UpdateIssueStatus(ctx, issueID, IssueStatus(status))
}

// AnnotateIssue replaces the free-text notes on an issue.
func (s *Service) AnnotateIssue(ctx context.Context, issueID, notes string) (*Issue, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, ErrIssueNotFound
	}
	return s.store.UpdateIssueNotes(ctx, issueID, notes)
}
