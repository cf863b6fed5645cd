package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salonpro-booking/services"
	"salonpro-booking/utils"
)

// PaymentEventInput is posted by the payment gateway handler after it has verified the
// gateway signature.
type PaymentEventInput struct {
	AppointmentID uuid.UUID       `json:"appointmentId" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status" binding:"required,oneof=succeeded failed"`
}

type PaymentController struct {
	Booking *services.BookingService
}

func (pc *PaymentController) HandlePaymentEvent(c *gin.Context) {
	var input PaymentEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var err error
	switch input.Status {
	case "succeeded":
		_, err = pc.Booking.MarkPaid(c.Request.Context(), input.AppointmentID, input.Amount)
	case "failed":
		_, err = pc.Booking.MarkPaymentFailed(c.Request.Context(), input.AppointmentID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded"})
}
