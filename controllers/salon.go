package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-booking/models"
	"salonpro-booking/services"
	"salonpro-booking/utils"
)

type SalonController struct {
	Settings *services.SalonSettings
}

func (sc *SalonController) GetSalon(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	salon, err := sc.Settings.Get(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":                  salon.Name,
		"address":               salon.Address,
		"workingHours":          salon.WorkingHours,
		"whatsAppNotifications": salon.WhatsAppNotifications,
		"smsNotifications":      salon.SMSNotifications,
	})
}

// UpdateWorkingHours only affects bookings made after the change
func (sc *SalonController) UpdateWorkingHours(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input struct {
		WorkingHours map[string]models.DayHours `json:"workingHours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	salon, err := sc.Settings.UpdateWorkingHours(c.Request.Context(), salonID, input.WorkingHours)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Working hours updated", "workingHours": salon.WorkingHours})
}

func (sc *SalonController) UpdateNotificationSettings(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input struct {
		WhatsAppNotifications bool `json:"whatsAppNotifications"`
		SMSNotifications      bool `json:"smsNotifications"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if _, err := sc.Settings.UpdateNotifications(c.Request.Context(), salonID, input.WhatsAppNotifications, input.SMSNotifications); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
