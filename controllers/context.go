package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-booking/models"
	"salonpro-booking/services"
	"salonpro-booking/utils"
)

func salonFromContext(c *gin.Context) (uuid.UUID, bool) {
	salonID := c.GetString(utils.ContextSalonID)
	if salonID == "" {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return uuid.Nil, false
	}
	salonUUID, err := uuid.Parse(salonID)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid salon ID format")
		return uuid.Nil, false
	}
	return salonUUID, true
}

func userFromContext(c *gin.Context) (uuid.UUID, bool) {
	userUUID, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userUUID, true
}

func idParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func isCustomer(c *gin.Context) bool {
	return c.GetString(utils.ContextRole) == models.RoleCustomer
}

// respondError writes a core failure with its stable code.
func respondError(c *gin.Context, err error) {
	be := services.AsBookingError(err)
	utils.RespondWithCode(c, be.HTTPStatus(), string(be.Code), be.Message)
}
