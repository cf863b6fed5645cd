package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-booking/services"
	"salonpro-booking/utils"
)

// OfferController has no update handler: offers are read-only once created.
type OfferController struct {
	Offers *services.OfferAdmin
}

func (oc *OfferController) CreateOffer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var input services.OfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	offer, err := oc.Offers.Create(c.Request.Context(), salonID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (oc *OfferController) GetOffers(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	offers, err := oc.Offers.List(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) GetOffer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	offerID, ok := idParam(c, "id", "offer")
	if !ok {
		return
	}
	offer, err := oc.Offers.Get(c.Request.Context(), salonID, offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (oc *OfferController) DeleteOffer(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	offerID, ok := idParam(c, "id", "offer")
	if !ok {
		return
	}
	if err := oc.Offers.Delete(c.Request.Context(), salonID, offerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer deleted successfully"})
}
