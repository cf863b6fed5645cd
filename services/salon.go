package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

// SalonSettings edits the per-salon configuration read at booking time. Changing hours
// never touches existing appointments.
type SalonSettings struct {
	db *gorm.DB
}

func NewSalonSettings(db *gorm.DB) *SalonSettings {
	return &SalonSettings{db: db}
}

func (s *SalonSettings) Get(ctx context.Context, salonID uuid.UUID) (*models.Salon, error) {
	var salon models.Salon
	if err := s.db.WithContext(ctx).First(&salon, "id = ?", salonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeSalonNotFound, "salon %s not found", salonID)
		}
		return nil, internalError(err, "load salon")
	}
	return &salon, nil
}

// UpdateWorkingHours replaces the hours. Keys are weekday names in any case.
func (s *SalonSettings) UpdateWorkingHours(ctx context.Context, salonID uuid.UUID, hours map[string]models.DayHours) (*models.Salon, error) {
	snapshot := models.JSONB{}
	for day, h := range hours {
		name, ok := utils.NormalizeWeekday(day)
		if !ok {
			return nil, newError(CodeInvalidWorkingHours, "unknown weekday %q", day)
		}
		if !h.Closed {
			open, err := utils.ParseClock(h.Open)
			if err != nil {
				return nil, newError(CodeInvalidWorkingHours, "%s: %s", name, err.Error())
			}
			closing, err := utils.ParseClock(h.Close)
			if err != nil {
				return nil, newError(CodeInvalidWorkingHours, "%s: %s", name, err.Error())
			}
			if closing <= open {
				return nil, newError(CodeInvalidWorkingHours, "%s: closing time must be after opening time", name)
			}
		}
		snapshot[strings.ToLower(name)] = map[string]interface{}{"open": h.Open, "close": h.Close, "closed": h.Closed}
	}

	salon, err := s.Get(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(salon).Update("working_hours", snapshot).Error; err != nil {
		return nil, internalError(err, "update working hours")
	}
	salon.WorkingHours = snapshot
	return salon, nil
}

func (s *SalonSettings) UpdateNotifications(ctx context.Context, salonID uuid.UUID, whatsApp, sms bool) (*models.Salon, error) {
	salon, err := s.Get(ctx, salonID)
	if err != nil {
		return nil, err
	}
	salon.WhatsAppNotifications = whatsApp
	salon.SMSNotifications = sms
	if err := s.db.WithContext(ctx).Model(salon).
		Select("WhatsAppNotifications", "SMSNotifications").
		Updates(salon).Error; err != nil {
		return nil, internalError(err, "update notification settings")
	}
	return salon, nil
}
