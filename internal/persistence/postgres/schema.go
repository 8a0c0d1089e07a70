package postgres

import "context"

// EnsureSchema creates the tables and indexes the service needs. All
// statements are idempotent so the bootstrap can run on every start.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS contracts (
            id uuid PRIMARY KEY,
            contract_id bigint NOT NULL UNIQUE,
            contract_name text NOT NULL,
            created_at timestamptz NOT NULL DEFAULT now(),
            updated_at timestamptz NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS activities (
            id uuid PRIMARY KEY,
            activity_id bigint NOT NULL UNIQUE,
            contract_id uuid NOT NULL REFERENCES contracts(id),
            type text NOT NULL,
            verified boolean NOT NULL DEFAULT false,
            contractors text,
            inspection_type text,
            activity_date text,
            report_date text,
            stage_id bigint,
            stage_name text,
            task_id bigint,
            task_name text,
            objective_id bigint,
            objective_name text,
            added_by_id bigint,
            added_by_name text,
            raw_data_json jsonb,
            created_at timestamptz NOT NULL DEFAULT now(),
            updated_at timestamptz NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS issues (
            id uuid PRIMARY KEY,
            activity_id uuid NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
            contract_id uuid NOT NULL REFERENCES contracts(id),
            title text NOT NULL,
            inspection_category text NOT NULL,
            status text NOT NULL DEFAULT 'identified',
            contractor_assigned text,
            notes text,
            created_by text,
            created_at text NOT NULL,
            updated_at timestamptz NOT NULL DEFAULT now(),
            metadata jsonb
        )`,
		`CREATE TABLE IF NOT EXISTS outbox (
            event_id bigserial PRIMARY KEY,
            event_type text NOT NULL,
            topic text NOT NULL,
            partition_key text NOT NULL,
            payload jsonb NOT NULL,
            created_at timestamptz NOT NULL DEFAULT now(),
            claimed_at timestamptz,
            published_at timestamptz
        )`,
		`CREATE TABLE IF NOT EXISTS event_log (
            id bigserial PRIMARY KEY,
            event_type text NOT NULL,
            topic text NOT NULL,
            partition int NOT NULL DEFAULT 0,
            record_offset bigint NOT NULL DEFAULT 0,
            payload jsonb NOT NULL,
            received_at timestamptz NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS activities_contract_type_idx
            ON activities (contract_id, type, activity_date)`,
		`CREATE INDEX IF NOT EXISTS issues_activity_idx ON issues (activity_id)`,
		`CREATE INDEX IF NOT EXISTS issues_contract_status_idx ON issues (contract_id, status)`,
		`CREATE INDEX IF NOT EXISTS outbox_unpublished_idx
            ON outbox (event_id) WHERE published_at IS NULL`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
