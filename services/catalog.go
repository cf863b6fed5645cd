package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpro-booking/models"
)

// LineItemRequest is one requested service with an optional customization.
type LineItemRequest struct {
	ServiceID        uuid.UUID  `json:"serviceId" binding:"required"`
	SelectedOptionID *uuid.UUID `json:"selectedOptionId"`
}

// LineItem is a priced request. Cost is the option price when one is chosen,
// otherwise the service base price.
type LineItem struct {
	ServiceID        uuid.UUID       `json:"serviceId"`
	ServiceName      string          `json:"serviceName"`
	SelectedOptionID *uuid.UUID      `json:"selectedOptionId,omitempty"`
	OptionName       string          `json:"optionName,omitempty"`
	Duration         int             `json:"duration"`
	Cost             decimal.Decimal `json:"calculatedCost"`
}

type ResolvedItems struct {
	Items            []LineItem
	TotalServiceCost decimal.Decimal
	TotalDuration    int
}

// CatalogResolver prices requested services. It never writes.
type CatalogResolver struct {
	db *gorm.DB
}

func NewCatalogResolver(db *gorm.DB) *CatalogResolver {
	return &CatalogResolver{db: db}
}

func (r *CatalogResolver) WithTx(tx *gorm.DB) *CatalogResolver {
	return &CatalogResolver{db: tx}
}

// Resolve prices the requests in order.
func (r *CatalogResolver) Resolve(ctx context.Context, salonID uuid.UUID, reqs []LineItemRequest) (*ResolvedItems, error) {
	if len(reqs) == 0 {
		return nil, newError(CodeServicesRequired, "at least one service is required")
	}

	out := &ResolvedItems{Items: make([]LineItem, 0, len(reqs)), TotalServiceCost: decimal.Zero}
	cache := make(map[uuid.UUID]*models.Service, len(reqs))

	for _, req := range reqs {
		service, ok := cache[req.ServiceID]
		if !ok {
			var s models.Service
			err := r.db.WithContext(ctx).Preload("Options").
				Where("salon_id = ? AND id = ? AND is_active = ?", salonID, req.ServiceID, true).
				First(&s).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, newError(CodeServiceNotFound, "service %s not found", req.ServiceID)
				}
				return nil, internalError(err, "load service")
			}
			service = &s
			cache[req.ServiceID] = service
		}

		item, err := priceLineItem(service, req.SelectedOptionID)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, item)
		out.TotalServiceCost = out.TotalServiceCost.Add(item.Cost)
		out.TotalDuration += item.Duration
	}
	return out, nil
}

func priceLineItem(service *models.Service, optionID *uuid.UUID) (LineItem, error) {
	item := LineItem{
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Duration:    service.Duration,
		Cost:        service.Price,
	}
	if optionID == nil {
		return item, nil
	}
	opt := service.FindOption(*optionID)
	if opt == nil {
		return LineItem{}, newError(CodeOptionNotFound, "option %s not found on service %s", *optionID, service.Name)
	}
	id := opt.ID
	item.SelectedOptionID = &id
	item.OptionName = opt.Name
	item.Cost = opt.Price
	return item, nil
}
