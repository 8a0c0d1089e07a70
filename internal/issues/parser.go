// Package issues derives issue records from the free-text inspection
// notes embedded in activity payloads.
package issues

import (
	"strings"
	"time"

	"example.com/siteboard/internal/domain"
)

const fallbackCategory = "general"

// ExtractInspectionCategory walks the payload's nested taxonomy and
// returns the first category name it finds: list[0].name, then
// list[0].list[0].name. Malformed or missing structure yields "general".
func ExtractInspectionCategory(payload map[string]any) string {
	list, ok := payload["list"].([]any)
	if !ok || len(list) == 0 {
		return fallbackCategory
	}

	entry, ok := list[0].(map[string]any)
	if !ok {
		return fallbackCategory
	}

	if name, ok := entry["name"].(string); ok && name != "" {
		return name
	}

	sublist, ok := entry["list"].([]any)
	if !ok || len(sublist) == 0 {
		return fallbackCategory
	}
	sub, ok := sublist[0].(map[string]any)
	if !ok {
		return fallbackCategory
	}
	if name, ok := sub["name"].(string); ok && name != "" {
		return name
	}

	return fallbackCategory
}

// ParseIdentifiedIssues converts an identified-issues value into at most
// one issue draft. The whole trimmed text becomes a single card; multi
// line notes are deliberately never split into separate tickets. Values
// of nil, false, "" and the literal "false" produce nothing.
func ParseIdentifiedIssues(raw any, category, activityID, contractID string, createdBy *string, activityDate string) []domain.Issue {
	text, ok := raw.(string)
	if !ok {
		// Booleans and anything non-textual carry no issue text.
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" || text == "false" {
		return nil
	}

	createdAt := activityDate
	if createdAt == "" {
		createdAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	}

	return []domain.Issue{{
		ActivityID:         activityID,
		ContractID:         contractID,
		Title:              text,
		InspectionCategory: strings.ToLower(category),
		Status:             domain.IssueStatusIdentified,
		CreatedBy:          createdBy,
		CreatedAt:          createdAt,
	}}
}
