package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"example.com/siteboard/internal/domain"
	"example.com/siteboard/internal/importer"
)

const (
	issueEventsTopic  = "issue_events"
	importEventsTopic = "import_events"
)

func issueCreatedPayload(issueID string, draft domain.Issue) map[string]any {
	return map[string]any{
		"issue_id":            issueID,
		"activity_id":         draft.ActivityID,
		"contract_id":         draft.ContractID,
		"title":               draft.Title,
		"inspection_category": draft.InspectionCategory,
		"status":              string(draft.Status),
		"created_at":          draft.CreatedAt,
	}
}

// InsertImportEvent records an import.completed outbox row so downstream
// subscribers learn about fresh data without polling the tables.
func (r *Repository) InsertImportEvent(ctx context.Context, stats importer.Stats) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	payload := map[string]any{
		"contracts_upserted":  stats.ContractsUpserted,
		"activities_upserted": stats.ActivitiesUpserted,
		"issues_created":      stats.IssuesCreated,
	}
	if err = insertOutboxTx(ctx, tx, "import.completed", importEventsTopic, "import", payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutboxTx(ctx context.Context, tx pgx.Tx, eventType, topic, partitionKey string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (event_type, topic, partition_key, payload)
        VALUES ($1, $2, $3, $4)`
	_, err = tx.Exec(ctx, stmt, eventType, topic, partitionKey, body)
	return err
}
