// Package postgres provides the pgx-backed store implementation.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/siteboard/internal/domain"
)

// Repository implements domain.Store on PostgreSQL. Contracts and
// activities are upserted on their external natural keys; issues are
// replaced wholesale per activity so re-imports stay idempotent.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contractColumns = `id, contract_id, contract_name, created_at, updated_at`

// UpsertContract inserts or updates a contract keyed by its external id.
func (r *Repository) UpsertContract(ctx context.Context, contractID int64, name string) (*domain.Contract, error) {
	const query = `INSERT INTO contracts (id, contract_id, contract_name)
        VALUES ($1, $2, $3)
        ON CONFLICT (contract_id) DO UPDATE
            SET contract_name = EXCLUDED.contract_name, updated_at = NOW()
        RETURNING ` + contractColumns

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), contractID, name)
	var contract domain.Contract
	if err := row.Scan(&contract.ID, &contract.ContractID, &contract.ContractName, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListContracts returns all contracts ordered by external id.
func (r *Repository) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY contract_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]domain.Contract, 0)
	for rows.Next() {
		var contract domain.Contract
		if err := rows.Scan(&contract.ID, &contract.ContractID, &contract.ContractName, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, rows.Err()
}

// UpsertActivity inserts or updates an activity keyed by its external id.
// The raw payload is stored verbatim for traceability.
func (r *Repository) UpsertActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error) {
	rawData, err := marshalJSONB(activity.RawData)
	if err != nil {
		return nil, fmt.Errorf("encode raw data: %w", err)
	}

	const query = `INSERT INTO activities (
            id, activity_id, contract_id, type, verified, contractors,
            inspection_type, activity_date, report_date, stage_id, stage_name,
            task_id, task_name, objective_id, objective_name, added_by_id,
            added_by_name, raw_data_json
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        ON CONFLICT (activity_id) DO UPDATE SET
            contract_id = EXCLUDED.contract_id,
            type = EXCLUDED.type,
            verified = EXCLUDED.verified,
            contractors = EXCLUDED.contractors,
            inspection_type = EXCLUDED.inspection_type,
            activity_date = EXCLUDED.activity_date,
            report_date = EXCLUDED.report_date,
            stage_id = EXCLUDED.stage_id,
            stage_name = EXCLUDED.stage_name,
            task_id = EXCLUDED.task_id,
            task_name = EXCLUDED.task_name,
            objective_id = EXCLUDED.objective_id,
            objective_name = EXCLUDED.objective_name,
            added_by_id = EXCLUDED.added_by_id,
            added_by_name = EXCLUDED.added_by_name,
            raw_data_json = EXCLUDED.raw_data_json,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		activity.ActivityID,
		activity.ContractID,
		activity.Type,
		activity.Verified,
		activity.Contractors,
		activity.InspectionType,
		activity.ActivityDate,
		activity.ReportDate,
		activity.StageID,
		activity.StageName,
		activity.TaskID,
		activity.TaskName,
		activity.ObjectiveID,
		activity.ObjectiveName,
		activity.AddedByID,
		activity.AddedByName,
		rawData,
	)

	stored := activity
	if err := row.Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ReplaceIssues deletes the issues tied to an activity and inserts the
// new drafts in one transaction, recording an outbox event per issue.
func (r *Repository) ReplaceIssues(ctx context.Context, activityID string, drafts []domain.Issue) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM issues WHERE activity_id = $1`, activityID); err != nil {
		return 0, err
	}

	const insert = `INSERT INTO issues (
            id, activity_id, contract_id, title, inspection_category,
            status, contractor_assigned, notes, created_by, created_at, metadata
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	for _, draft := range drafts {
		metadata, mErr := marshalJSONB(draft.Metadata)
		if mErr != nil {
			err = fmt.Errorf("encode metadata: %w", mErr)
			return 0, err
		}

		issueID := uuid.NewString()
		if _, err = tx.Exec(ctx, insert,
			issueID,
			draft.ActivityID,
			draft.ContractID,
			draft.Title,
			draft.InspectionCategory,
			draft.Status,
			draft.ContractorAssigned,
			draft.Notes,
			draft.CreatedBy,
			draft.CreatedAt,
			metadata,
		); err != nil {
			return 0, err
		}

		if err = insertOutboxTx(ctx, tx, "issue.created", issueEventsTopic, draft.ContractID, issueCreatedPayload(issueID, draft)); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(drafts), nil
}

const issueColumns = `id, activity_id, contract_id, title, inspection_category, status,
        contractor_assigned, notes, created_by, created_at, updated_at, metadata`

// ListIssues returns issues matching the filter, newest first.
func (r *Repository) ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE 1=1`
	args := make([]any, 0, 5)

	if filter.ContractID != "" {
		args = append(args, filter.ContractID)
		query += fmt.Sprintf(` AND contract_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND inspection_category = $%d`, len(args))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.EndDate != "" {
		args = append(args, widenEndOfDay(filter.EndDate))
		query += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanIssues(rows)
}

// widenEndOfDay extends a bare YYYY-MM-DD bound to the last second of that
// day. created_at is stored as "YYYY-MM-DD HH:MM:SS" text, so a date-only
// upper bound would lexically exclude rows created after midnight.
func widenEndOfDay(bound string) string {
	if len(bound) == len("2006-01-02") {
		return bound + " 23:59:59"
	}
	return bound
}

// UpdateIssueStatus moves an issue to a new Kanban column.
func (r *Repository) UpdateIssueStatus(ctx context.Context, issueID string, status domain.IssueStatus) (*domain.Issue, error) {
	const query = `UPDATE issues SET status = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + issueColumns

	return r.scanOneIssue(r.pool.QueryRow(ctx, query, issueID, status))
}

// UpdateIssueNotes replaces the notes on an issue.
func (r *Repository) UpdateIssueNotes(ctx context.Context, issueID string, notes string) (*domain.Issue, error) {
	const query = `UPDATE issues SET notes = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + issueColumns

	return r.scanOneIssue(r.pool.QueryRow(ctx, query, issueID, notes))
}

// ListInspections returns inspection rows for the coverage grid. Only
// rows with a resolved objective and inspection type qualify; results
// are ordered by activity date descending.
func (r *Repository) ListInspections(ctx context.Context, query domain.InspectionQuery) ([]domain.InspectionRecord, error) {
	sql := `SELECT activity_id, objective_id, objective_name, inspection_type,
            activity_date, contractors, verified, added_by_name, raw_data_json
        FROM activities
        WHERE contract_id = $1
          AND type = 'INSPECTION'
          AND objective_id IS NOT NULL
          AND objective_name IS NOT NULL
          AND inspection_type IS NOT NULL`
	args := []any{query.ContractID}

	if query.StartDate != "" {
		args = append(args, query.StartDate)
		sql += fmt.Sprintf(` AND activity_date >= $%d`, len(args))
	}
	if query.EndDate != "" {
		args = append(args, query.EndDate)
		sql += fmt.Sprintf(` AND activity_date <= $%d`, len(args))
	}
	if query.ObjectiveID != nil {
		args = append(args, *query.ObjectiveID)
		sql += fmt.Sprintf(` AND objective_id = $%d`, len(args))
	}
	if query.InspectionType != "" {
		args = append(args, query.InspectionType)
		sql += fmt.Sprintf(` AND inspection_type = $%d`, len(args))
	}

	sql += ` ORDER BY activity_date DESC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.InspectionRecord, 0)
	for rows.Next() {
		var record domain.InspectionRecord
		var rawData []byte
		if err := rows.Scan(
			&record.ActivityID,
			&record.ObjectiveID,
			&record.ObjectiveName,
			&record.InspectionType,
			&record.ActivityDate,
			&record.Contractors,
			&record.Verified,
			&record.AddedByName,
			&rawData,
		); err != nil {
			return nil, err
		}
		record.RawData = unmarshalJSONB(rawData)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *Repository) scanOneIssue(row pgx.Row) (*domain.Issue, error) {
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, err
	}
	return issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	issues := make([]domain.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	var metadata []byte
	if err := row.Scan(
		&issue.ID,
		&issue.ActivityID,
		&issue.ContractID,
		&issue.Title,
		&issue.InspectionCategory,
		&issue.Status,
		&issue.ContractorAssigned,
		&issue.Notes,
		&issue.CreatedBy,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&metadata,
	); err != nil {
		return nil, err
	}
	issue.Metadata = unmarshalJSONB(metadata)
	return &issue, nil
}

func marshalJSONB(value map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func unmarshalJSONB(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return decoded
}
