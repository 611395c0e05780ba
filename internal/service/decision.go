package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bridgeofhope/internal/model"
)

// DecisionLog mirrors committed transitions into Postgres. The remote
// service stays the source of truth; this is the organization's audit trail.
type DecisionLog struct {
	db *sql.DB
}

func NewDecisionLog(db *sql.DB) *DecisionLog {
	return &DecisionLog{db: db}
}

func (s *DecisionLog) Record(ctx context.Context, d model.Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, organization_id, donor_id, outcome, pickup_date, pickup_time, decided_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		d.ID, d.OrganizationID, d.DonorID, string(d.Outcome), d.ScheduledDate, d.ScheduledTime, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *DecisionLog) ListByOrganization(ctx context.Context, orgID string) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, donor_id, outcome, COALESCE(pickup_date, ''), COALESCE(pickup_time, ''), decided_at
		 FROM decisions WHERE organization_id = $1 ORDER BY decided_at DESC`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		var d model.Decision
		var outcome string
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.DonorID, &outcome, &d.ScheduledDate, &d.ScheduledTime, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if d.Outcome, err = model.ParseStatus(outcome); err != nil {
			return nil, fmt.Errorf("scan decision %s: %w", d.ID, err)
		}
		decisions = append(decisions, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return decisions, nil
}
