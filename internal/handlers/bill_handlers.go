package handlers

import (
	"net/http"

	"mess_portal_backend/internal/services"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BillHandler holds the billing service.
type BillHandler struct {
	billingService services.BillingService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(bs services.BillingService) *BillHandler {
	return &BillHandler{billingService: bs}
}

// GetMyBills returns the authenticated user's bills, newest first.
func (h *BillHandler) GetMyBills(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bills, err := h.billingService.GetMyBills(userID)
	if err != nil {
		utils.LogError(err, "GetMyBills: Error from billingService.GetMyBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, bills)
}

// GetAllBills returns every bill on record (admin view).
func (h *BillHandler) GetAllBills(c *gin.Context) {
	bills, err := h.billingService.GetAllBills()
	if err != nil {
		utils.LogError(err, "GetAllBills: Error from billingService.GetAllBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, bills)
}

// GetMyOrderTotals returns the caller's pending and approved amounts.
func (h *BillHandler) GetMyOrderTotals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	totals, err := h.billingService.GetMyOrderTotals(userID)
	if err != nil {
		utils.LogError(err, "GetMyOrderTotals: Error from billingService.GetMyOrderTotals")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute order totals.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, totals)
}
