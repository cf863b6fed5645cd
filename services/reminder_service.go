// services/reminder_service.go
package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

// ReminderService publishes AppointmentReminder events for the next day's live appointments.
type ReminderService struct {
	db     *gorm.DB
	events EventPublisher
	clock  utils.Clock
	loc    *time.Location
	cron   *cron.Cron
}

func NewReminderService(db *gorm.DB, events EventPublisher, clock utils.Clock, loc *time.Location) *ReminderService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{db: db, events: events, clock: clock, loc: loc}
}

// StartScheduler runs the reminder job on the given cron spec in the salon timezone.
func (s *ReminderService) StartScheduler(spec string) error {
	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.SendUpcomingReminders(ctx); err != nil {
			log.Error().Err(err).Msg("reminder run failed")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid reminder schedule %q", spec)
	}
	c.Start()
	s.cron = c
	log.Info().Str("schedule", spec).Msg("reminder scheduler started")
	return nil
}

// Stop waits for a running job to finish.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SendUpcomingReminders publishes one reminder per live appointment tomorrow and returns the count.
func (s *ReminderService) SendUpcomingReminders(ctx context.Context) (int, error) {
	now := s.clock().In(s.loc)
	tomorrow := utils.BeginningOfDay(now).AddDate(0, 0, 1).Format(utils.DateLayout)

	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Salon.Owner").
		Where("date = ? AND status IN ?", tomorrow, models.LiveStatuses).
		Order("start_minute ASC").
		Find(&appts).Error
	if err != nil {
		return 0, errors.Wrap(err, "load upcoming appointments")
	}

	for i := range appts {
		s.events.Publish(newEvent(EventAppointmentReminder, &appts[i], s.loc, now))
	}
	log.Info().Str("date", tomorrow).Int("count", len(appts)).Msg("appointment reminders queued")
	return len(appts), nil
}
