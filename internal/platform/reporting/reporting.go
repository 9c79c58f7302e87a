// Package reporting derives dashboard counts from the appointment table.
// Counts are recomputed on every call.
package reporting

import (
	"context"
	"time"

	"github.com/curenation/hms/internal/platform/apierror"
)

// Summary is the appointment dashboard breakdown.
type Summary struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Today     int64 `json:"today"`
}

// Repository runs the aggregate query. today is a YYYY-MM-DD date.
type Repository interface {
	AppointmentSummary(ctx context.Context, today string) (*Summary, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary counts appointments by status plus those dated on the server's
// local calendar day.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.now().Local().Format(time.DateOnly)
	sum, err := s.repo.AppointmentSummary(ctx, today)
	if err != nil {
		return nil, apierror.Internal("Error fetching appointment statistics", err)
	}
	return sum, nil
}
