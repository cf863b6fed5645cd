package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-booking/models"
	"salonpro-booking/services"
	"salonpro-booking/utils"
)

type QuoteInput struct {
	CustomerID *uuid.UUID                 `json:"customerId"`
	Services   []services.LineItemRequest `json:"services" binding:"required,dive"`
	OfferCode  string                     `json:"offerCode"`
	Date       string                     `json:"date"`
}

type CreateAppointmentInput struct {
	CustomerID *uuid.UUID                 `json:"customerId"`
	ArtistID   *uuid.UUID                 `json:"artistId"`
	Date       string                     `json:"date" binding:"required"`
	StartTime  string                     `json:"startTime" binding:"required"`
	Services   []services.LineItemRequest `json:"services" binding:"required,dive"`
	OfferCode  string                     `json:"offerCode"`
	Notes      string                     `json:"notes"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type RescheduleInput struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
}

type AppointmentController struct {
	Booking  *services.BookingService
	Composer *services.CostComposer
	Location *time.Location
}

// Quote previews the price. A rejected offer comes back as offerWarning with the price
// computed without it.
func (ac *AppointmentController) Quote(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input QuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	customerID, ok := ac.resolveCustomer(c, salonID, input.CustomerID)
	if !ok {
		return
	}

	req := services.CostRequest{
		CustomerID: customerID,
		SalonID:    salonID,
		Services:   input.Services,
		OfferCode:  input.OfferCode,
	}
	if input.Date != "" {
		date, err := utils.ParseDate(input.Date, ac.location())
		if err != nil {
			utils.RespondWithCode(c, http.StatusBadRequest, string(services.CodeInvalidAppointmentTime), "Invalid date, expected YYYY-MM-DD")
			return
		}
		req.AppointmentDate = &date
	}

	quote, err := ac.Composer.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (ac *AppointmentController) Create(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	customerID, ok := ac.resolveCustomer(c, salonID, input.CustomerID)
	if !ok {
		return
	}

	appt, err := ac.Booking.Create(c.Request.Context(), services.CreateAppointmentInput{
		SalonID:    salonID,
		CustomerID: customerID,
		ArtistID:   input.ArtistID,
		Date:       input.Date,
		StartTime:  input.StartTime,
		Services:   input.Services,
		OfferCode:  input.OfferCode,
		Notes:      input.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (ac *AppointmentController) List(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	filter := services.AppointmentFilter{
		SalonID: salonID,
		Date:    c.Query("date"),
		Status:  c.Query("status"),
	}
	if v := c.Query("artistId"); v != "" {
		artistID, err := uuid.Parse(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid artist ID format")
			return
		}
		filter.ArtistID = &artistID
	}
	if isCustomer(c) {
		customerID, ok := ac.resolveCustomer(c, salonID, nil)
		if !ok {
			return
		}
		filter.CustomerID = &customerID
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	appts, err := ac.Booking.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (ac *AppointmentController) Get(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	appt, ok := ac.authorize(c, salonID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appt)
}

// UpdateStatus is used by owners and staff to accept, reject or complete.
func (ac *AppointmentController) UpdateStatus(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "appointment")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appt, err := ac.Booking.UpdateStatus(c.Request.Context(), salonID, id, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) Cancel(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	current, ok := ac.authorize(c, salonID)
	if !ok {
		return
	}
	appt, err := ac.Booking.Cancel(c.Request.Context(), salonID, current.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) Reschedule(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input RescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	current, ok := ac.authorize(c, salonID)
	if !ok {
		return
	}
	appt, err := ac.Booking.Reschedule(c.Request.Context(), salonID, current.ID, input.Date, input.StartTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) Invoice(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	appt, ok := ac.authorize(c, salonID)
	if !ok {
		return
	}
	invoice, err := ac.Booking.Invoice(c.Request.Context(), salonID, appt.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// resolveCustomer maps a customer caller to their own record; staff must name the customer.
func (ac *AppointmentController) resolveCustomer(c *gin.Context, salonID uuid.UUID, requested *uuid.UUID) (uuid.UUID, bool) {
	if !isCustomer(c) {
		if requested == nil {
			utils.RespondWithError(c, http.StatusBadRequest, "customerId is required")
			return uuid.Nil, false
		}
		return *requested, true
	}
	userID, ok := userFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	customer, err := ac.Booking.CustomerForUser(c.Request.Context(), salonID, userID)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return customer.ID, true
}

// authorize loads the :id appointment and hides other customers' appointments.
func (ac *AppointmentController) authorize(c *gin.Context, salonID uuid.UUID) (*models.Appointment, bool) {
	id, ok := idParam(c, "id", "appointment")
	if !ok {
		return nil, false
	}
	appt, err := ac.Booking.Get(c.Request.Context(), salonID, id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if isCustomer(c) {
		customerID, ok := ac.resolveCustomer(c, salonID, nil)
		if !ok {
			return nil, false
		}
		if appt.CustomerID != customerID {
			utils.RespondWithCode(c, http.StatusNotFound, string(services.CodeAppointmentNotFound), "Appointment not found")
			return nil, false
		}
	}
	return appt, true
}

func (ac *AppointmentController) location() *time.Location {
	if ac.Location == nil {
		return time.UTC
	}
	return ac.Location
}
