// controllers/service.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-booking/services"
	"salonpro-booking/utils"
)

type ServiceController struct {
	Catalog *services.ServiceCatalog
}

// CreateService creates a new service for the salon
func (sc *ServiceController) CreateService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input services.ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, err := sc.Catalog.Create(c.Request.Context(), salonID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices retrieves all services for the salon
func (sc *ServiceController) GetServices(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	list, err := sc.Catalog.List(c.Request.Context(), salonID, c.Query("all") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetService retrieves a specific service by ID
func (sc *ServiceController) GetService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	serviceID, ok := idParam(c, "id", "service")
	if !ok {
		return
	}

	service, err := sc.Catalog.Get(c.Request.Context(), salonID, serviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// UpdateService updates an existing service
func (sc *ServiceController) UpdateService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	serviceID, ok := idParam(c, "id", "service")
	if !ok {
		return
	}

	var input services.ServiceUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, err := sc.Catalog.Update(c.Request.Context(), salonID, serviceID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeleteService retires a service that no upcoming appointment uses
func (sc *ServiceController) DeleteService(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	serviceID, ok := idParam(c, "id", "service")
	if !ok {
		return
	}

	if err := sc.Catalog.Delete(c.Request.Context(), salonID, serviceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
