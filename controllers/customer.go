package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-booking/services"
	"salonpro-booking/utils"
)

type CustomerController struct {
	Customers *services.CustomerDirectory
}

// CreateCustomer registers a customer for the salon and opens their wallet
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var input services.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, err := cc.Customers.Register(c.Request.Context(), salonID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers retrieves all active customers for the salon
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	customers, err := cc.Customers.List(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a specific customer by ID
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	customerID, ok := idParam(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := cc.Customers.Get(c.Request.Context(), salonID, customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}
