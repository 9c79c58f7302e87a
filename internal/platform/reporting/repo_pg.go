package reporting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curenation/hms/internal/platform/db"
)

type summaryRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &summaryRepoPG{pool: pool}
}

func (r *summaryRepoPG) AppointmentSummary(ctx context.Context, today string) (*Summary, error) {
	var s Summary
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE appointment_date = $1::date)
		FROM appointments`, today,
	).Scan(&s.Total, &s.Pending, &s.Approved, &s.Completed, &s.Cancelled, &s.Today)
	if err != nil {
		return nil, fmt.Errorf("appointment summary: %w", err)
	}
	return &s, nil
}
