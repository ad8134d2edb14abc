// Package postgres persists pipeline run summaries so repeated runs can be
// compared over time and served to the artifact API.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"policypulse/domain/core"
	"policypulse/domain/impact"
	"policypulse/internal/errors"
	"policypulse/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id TEXT PRIMARY KEY,
	entity TEXT NOT NULL,
	policy_date DATE NOT NULL,
	avg_effect DOUBLE PRECISION,
	total_effect DOUBLE PRECISION,
	r_squared DOUBLE PRECISION,
	post_period_points INTEGER NOT NULL,
	best_lag INTEGER,
	best_r2 DOUBLE PRECISION,
	best_rmse DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_entity ON analysis_runs (entity, created_at DESC);
`

// runRepository implements ports.RunRepository on Postgres.
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository connects to Postgres and ensures the schema exists.
func NewRunRepository(databaseURL string) (ports.RunRepository, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to postgres: " + err.Error())
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.DatabaseError("failed to ensure schema: " + err.Error())
	}
	return &runRepository{db: db}, nil
}

// Save inserts one run record.
func (r *runRepository) Save(ctx context.Context, record impact.RunRecord) error {
	query := `INSERT INTO analysis_runs (
		id, entity, policy_date, avg_effect, total_effect, r_squared,
		post_period_points, best_lag, best_r2, best_rmse, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(), record.Entity.String(), record.PolicyDate,
		record.AvgEffect, record.TotalEffect, record.RSquared,
		record.PostPeriodPoints, record.BestLag, record.BestR2, record.BestRMSE,
		record.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to save run: " + err.Error())
	}
	return nil
}

// ListByEntity returns an entity's runs, newest first.
func (r *runRepository) ListByEntity(ctx context.Context, entity core.EntityKey) ([]impact.RunRecord, error) {
	query := selectColumns + ` WHERE entity = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, entity.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs: " + err.Error())
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ListRecent returns the most recent runs across all entities.
func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]impact.RunRecord, error) {
	query := selectColumns + ` ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list recent runs: " + err.Error())
	}
	defer rows.Close()
	return scanRuns(rows)
}

const selectColumns = `SELECT
	id, entity, policy_date, avg_effect, total_effect, r_squared,
	post_period_points, best_lag, best_r2, best_rmse, created_at
FROM analysis_runs`

func scanRuns(rows *sql.Rows) ([]impact.RunRecord, error) {
	var records []impact.RunRecord
	for rows.Next() {
		var rec impact.RunRecord
		var id, entity string
		var policyDate, createdAt time.Time

		if err := rows.Scan(
			&id, &entity, &policyDate, &rec.AvgEffect, &rec.TotalEffect, &rec.RSquared,
			&rec.PostPeriodPoints, &rec.BestLag, &rec.BestR2, &rec.BestRMSE, &createdAt,
		); err != nil {
			return nil, errors.DatabaseError("failed to scan run: " + err.Error())
		}
		rec.ID = core.RunID(id)
		rec.Entity = core.EntityKey(entity)
		rec.PolicyDate = policyDate
		rec.CreatedAt = createdAt
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed reading runs: " + err.Error())
	}
	return records, nil
}
