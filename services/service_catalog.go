package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpro-booking/models"
)

type OptionInput struct {
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

type ServiceInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration"` // in minutes
	Category    string          `json:"category"`
	Options     []OptionInput   `json:"options"`
}

// ServiceUpdate holds the fields to change. Options, when set, replace the whole list.
type ServiceUpdate struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *int             `json:"duration"`
	Category    *string          `json:"category"`
	IsActive    *bool            `json:"isActive"`
	Options     *[]OptionInput   `json:"options"`
}

// ServiceCatalog manages a salon's services. A service referenced by a live appointment
// cannot be changed or removed.
type ServiceCatalog struct {
	db *gorm.DB
}

func NewServiceCatalog(db *gorm.DB) *ServiceCatalog {
	return &ServiceCatalog{db: db}
}

func (c *ServiceCatalog) Create(ctx context.Context, salonID uuid.UUID, in ServiceInput) (*models.Service, error) {
	if err := validateService(in.Name, in.Price, in.Duration, in.Options); err != nil {
		return nil, err
	}
	service := models.Service{
		SalonID:     salonID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Duration:    in.Duration,
		Category:    in.Category,
		IsActive:    true,
		Options:     buildOptions(in.Options),
	}
	if service.Category == "" {
		service.Category = "General"
	}
	if err := c.db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, internalError(err, "create service")
	}
	log.Info().Str("service_id", service.ID.String()).Str("salon_id", salonID.String()).Msg("service created")
	return &service, nil
}

func (c *ServiceCatalog) List(ctx context.Context, salonID uuid.UUID, includeInactive bool) ([]models.Service, error) {
	q := c.db.WithContext(ctx).Preload("Options").Where("salon_id = ?", salonID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		return nil, internalError(err, "list services")
	}
	return services, nil
}

func (c *ServiceCatalog) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Service, error) {
	return findService(ctx, c.db, salonID, id)
}

func (c *ServiceCatalog) Update(ctx context.Context, salonID, id uuid.UUID, in ServiceUpdate) (*models.Service, error) {
	var service *models.Service
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if service, err = findService(ctx, tx, salonID, id); err != nil {
			return err
		}
		if err := ensureServiceUnlocked(ctx, tx, id); err != nil {
			return err
		}

		if in.Name != nil {
			service.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			service.Description = *in.Description
		}
		if in.Price != nil {
			service.Price = *in.Price
		}
		if in.Duration != nil {
			service.Duration = *in.Duration
		}
		if in.Category != nil {
			service.Category = *in.Category
		}
		if in.IsActive != nil {
			service.IsActive = *in.IsActive
		}
		options := make([]OptionInput, 0, len(service.Options))
		for _, o := range service.Options {
			options = append(options, OptionInput{Name: o.Name, Price: o.Price})
		}
		if in.Options != nil {
			options = *in.Options
		}
		if err := validateService(service.Name, service.Price, service.Duration, options); err != nil {
			return err
		}

		if err := tx.Model(service).Select("name", "description", "price", "duration", "category", "is_active").
			Updates(service).Error; err != nil {
			return internalError(err, "update service")
		}
		if in.Options != nil {
			if err := tx.Where("service_id = ?", id).Delete(&models.ServiceOption{}).Error; err != nil {
				return internalError(err, "replace service options")
			}
			service.Options = buildOptions(*in.Options)
			for i := range service.Options {
				service.Options[i].ServiceID = id
			}
			if len(service.Options) > 0 {
				if err := tx.Create(&service.Options).Error; err != nil {
					return internalError(err, "replace service options")
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	return service, nil
}

// Delete retires the service. Historical appointments keep their frozen line items.
func (c *ServiceCatalog) Delete(ctx context.Context, salonID, id uuid.UUID) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findService(ctx, tx, salonID, id); err != nil {
			return err
		}
		if err := ensureServiceUnlocked(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Service{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return internalError(err, "delete service")
		}
		return nil
	})
	if err != nil {
		return AsBookingError(err)
	}
	log.Info().Str("service_id", id.String()).Msg("service retired")
	return nil
}

func findService(ctx context.Context, db *gorm.DB, salonID, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	err := db.WithContext(ctx).Preload("Options").Where("salon_id = ? AND id = ?", salonID, id).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeServiceNotFound, "service %s not found", id)
		}
		return nil, internalError(err, "load service")
	}
	return &service, nil
}

func ensureServiceUnlocked(ctx context.Context, tx *gorm.DB, serviceID uuid.UUID) error {
	var n int64
	err := tx.WithContext(ctx).Model(&models.AppointmentService{}).
		Joins("JOIN appointments ON appointments.id = appointment_services.appointment_id").
		Where("appointment_services.service_id = ? AND appointments.status IN ?", serviceID, models.LiveStatuses).
		Count(&n).Error
	if err != nil {
		return internalError(err, "check service usage")
	}
	if n > 0 {
		return newError(CodeServiceLocked, "service is referenced by %d upcoming appointment(s)", n)
	}
	return nil
}

func validateService(name string, price decimal.Decimal, duration int, options []OptionInput) error {
	if strings.TrimSpace(name) == "" {
		return newError(CodeInvalidServiceDefinition, "service name is required")
	}
	if price.IsNegative() {
		return newError(CodeInvalidServiceDefinition, "service price must not be negative")
	}
	if duration < 0 {
		return newError(CodeInvalidServiceDefinition, "service duration must not be negative")
	}
	for _, o := range options {
		if strings.TrimSpace(o.Name) == "" {
			return newError(CodeInvalidServiceDefinition, "option name is required")
		}
		if o.Price.IsNegative() {
			return newError(CodeInvalidServiceDefinition, "option %s price must not be negative", o.Name)
		}
	}
	return nil
}

func buildOptions(in []OptionInput) []models.ServiceOption {
	out := make([]models.ServiceOption, 0, len(in))
	for _, o := range in {
		out = append(out, models.ServiceOption{Name: strings.TrimSpace(o.Name), Price: round2(o.Price)})
	}
	return out
}
