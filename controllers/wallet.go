package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"salonpro-booking/models"
	"salonpro-booking/services"
	"salonpro-booking/utils"
)

type CreditWalletInput struct {
	Amount decimal.Decimal `json:"amount"`
}

type WalletController struct {
	Wallet *services.WalletLedger
}

// GetWallet returns the caller's balance and recent ledger entries.
func (wc *WalletController) GetWallet(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	wallet, err := wc.Wallet.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := wc.Wallet.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":      wallet.Balance,
		"updatedAt":    wallet.UpdatedAt,
		"transactions": history,
	})
}

// CreditWallet tops up a user's wallet. Owners only.
func (wc *WalletController) CreditWallet(c *gin.Context) {
	userID, ok := idParam(c, "userId", "user")
	if !ok {
		return
	}
	var input CreditWalletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if _, err := wc.Wallet.Open(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	entry, err := wc.Wallet.Credit(c.Request.Context(), userID, input.Amount, models.WalletReasonTopUp, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
