package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
	// UserID links an identity already issued by the auth service. A new user row is
	// created when it is empty.
	UserID *uuid.UUID `json:"userId"`
}

// CustomerDirectory registers salon customers together with their user row and wallet.
type CustomerDirectory struct {
	db *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

func (d *CustomerDirectory) Register(ctx context.Context, salonID uuid.UUID, in CustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(CodeInvalidCustomer, "customer name is required")
	}
	if !utils.ValidatePhone(in.Phone) {
		return nil, newError(CodeInvalidCustomer, "invalid phone number format")
	}

	var customer models.Customer
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("salon_id = ? AND phone = ?", salonID, in.Phone).Count(&n).Error; err != nil {
			return internalError(err, "check customer phone")
		}
		if n > 0 {
			return newError(CodeCustomerExists, "customer with phone %s already exists", in.Phone)
		}

		var user models.User
		if in.UserID != nil {
			if err := tx.First(&user, "id = ?", *in.UserID).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return internalError(err, "load user")
				}
				user = models.User{ID: *in.UserID, Name: name, Phone: in.Phone, Email: in.Email, Role: models.RoleCustomer, IsActive: true}
				if err := tx.Create(&user).Error; err != nil {
					return internalError(err, "create user")
				}
			}
		} else {
			user = models.User{Name: name, Phone: in.Phone, Email: in.Email, Role: models.RoleCustomer, IsActive: true}
			if err := tx.Create(&user).Error; err != nil {
				return internalError(err, "create user")
			}
		}

		customer = models.Customer{
			SalonID:  salonID,
			UserID:   user.ID,
			Name:     name,
			Phone:    in.Phone,
			Email:    in.Email,
			IsActive: true,
		}
		if err := tx.Omit("User").Create(&customer).Error; err != nil {
			return internalError(err, "create customer")
		}
		_, err := NewWalletLedger(tx).Open(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, AsBookingError(err)
	}
	log.Info().Str("customer_id", customer.ID.String()).Str("salon_id", salonID.String()).Msg("customer registered")
	return &customer, nil
}

func (d *CustomerDirectory) List(ctx context.Context, salonID uuid.UUID) ([]models.Customer, error) {
	var customers []models.Customer
	if err := d.db.WithContext(ctx).Where("salon_id = ? AND is_active = ?", salonID, true).
		Order("name ASC").Find(&customers).Error; err != nil {
		return nil, internalError(err, "list customers")
	}
	return customers, nil
}

func (d *CustomerDirectory) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := d.db.WithContext(ctx).Preload("Redemptions").
		Where("salon_id = ? AND id = ?", salonID, id).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeCustomerNotFound, "customer %s not found", id)
		}
		return nil, internalError(err, "load customer")
	}
	return &customer, nil
}
