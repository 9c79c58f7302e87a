package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/jobs"
	"github.com/curenation/hms/internal/platform/notification"
)

// SendReminders emails every patient with an approved appointment on the
// next calendar day and returns how many reminders were queued.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	tomorrow := s.now().AddDate(0, 0, 1).Format(time.DateOnly)
	appts, err := s.appts.ListForReminder(ctx, tomorrow)
	if err != nil {
		return 0, apierror.Internal("Error fetching appointments for reminders", err)
	}
	for _, a := range appts {
		s.notify(ctx, notification.TemplateAppointmentReminder, a)
	}
	return len(appts), nil
}

// ReminderJob adapts SendReminders to the job scheduler.
func (s *Service) ReminderJob() jobs.Job {
	return func(ctx context.Context) error {
		n, err := s.SendReminders(ctx)
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int("count", n).Msg("appointment reminders queued")
		return nil
	}
}
