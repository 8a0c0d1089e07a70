// Package inspections derives the coverage grid shown for a contract:
// which objectives received which inspection types inside a period.
package inspections

import (
	"context"
	"sort"

	"example.com/siteboard/internal/domain"
)

// GridData bundles everything the coverage grid needs: the distinct
// objectives (sorted by id), the distinct inspection types (sorted
// lexicographically) and the raw records used for cell lookups.
type GridData struct {
	Objectives      []domain.Objective        `json:"objectives"`
	InspectionTypes []string                  `json:"inspection_types"`
	Records         []domain.InspectionRecord `json:"records"`
}

// Store is the read capability the grid depends on.
type Store interface {
	ListInspections(ctx context.Context, query domain.InspectionQuery) ([]domain.InspectionRecord, error)
}

// Service answers grid and drill-down queries.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GridData fetches qualifying inspection rows for the contract and date
// range and derives the grid axes from them.
func (s *Service) GridData(ctx context.Context, contractID, startDate, endDate string) (*GridData, error) {
	records, err := s.store.ListInspections(ctx, domain.InspectionQuery{
		ContractID: contractID,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		return nil, err
	}
	grid := BuildGrid(records)
	return &grid, nil
}

// Details fetches the records behind one grid cell.
func (s *Service) Details(ctx context.Context, contractID string, objectiveID int64, inspectionType, startDate, endDate string) ([]domain.InspectionRecord, error) {
	return s.store.ListInspections(ctx, domain.InspectionQuery{
		ContractID:     contractID,
		ObjectiveID:    &objectiveID,
		InspectionType: inspectionType,
		StartDate:      startDate,
		EndDate:        endDate,
	})
}

// BuildGrid derives the distinct objective and inspection-type sets from
// a record collection, independent of the input ordering.
func BuildGrid(records []domain.InspectionRecord) GridData {
	objectivesByID := make(map[int64]string)
	typeSet := make(map[string]struct{})

	for _, record := range records {
		objectivesByID[record.ObjectiveID] = record.ObjectiveName
		typeSet[record.InspectionType] = struct{}{}
	}

	objectives := make([]domain.Objective, 0, len(objectivesByID))
	for id, name := range objectivesByID {
		objectives = append(objectives, domain.Objective{ID: id, Name: name})
	}
	sort.Slice(objectives, func(i, j int) bool { return objectives[i].ID < objectives[j].ID })

	types := make([]string, 0, len(typeSet))
	for name := range typeSet {
		types = append(types, name)
	}
	sort.Strings(types)

	return GridData{Objectives: objectives, InspectionTypes: types, Records: records}
}

// HasInspection reports whether at least one record matches the cell.
func HasInspection(records []domain.InspectionRecord, objectiveID int64, inspectionType string) bool {
	for _, record := range records {
		if record.ObjectiveID == objectiveID && record.InspectionType == inspectionType {
			return true
		}
	}
	return false
}

// InspectionCount counts the records matching the cell.
func InspectionCount(records []domain.InspectionRecord, objectiveID int64, inspectionType string) int {
	count := 0
	for _, record := range records {
		if record.ObjectiveID == objectiveID && record.InspectionType == inspectionType {
			count++
		}
	}
	return count
}

// MostRecentDate returns the latest activity date for the cell, or ""
// when the cell is empty. The records are scanned rather than assumed
// sorted; YYYY-MM-DD-prefixed timestamps compare correctly as strings.
func MostRecentDate(records []domain.InspectionRecord, objectiveID int64, inspectionType string) string {
	latest := ""
	for _, record := range records {
		if record.ObjectiveID != objectiveID || record.InspectionType != inspectionType {
			continue
		}
		if record.ActivityDate > latest {
			latest = record.ActivityDate
		}
	}
	return latest
}
