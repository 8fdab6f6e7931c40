package handlers

import (
	"errors"
	"net/http"

	"mess_portal_backend/internal/services"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// FulfillmentHandler holds the fulfillment service.
type FulfillmentHandler struct {
	fulfillmentService services.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler.
func NewFulfillmentHandler(fs services.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentService: fs}
}

// VerifyToken resolves a pickup token presented at the counter to its
// approved order. Lookup failures are deliberately indistinguishable.
func (h *FulfillmentHandler) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.fulfillmentService.LookupByToken(req.Token)
	if err != nil {
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No approved order found for this token.", ""))
		} else {
			utils.LogError(err, "VerifyToken: Error from fulfillmentService.LookupByToken")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to verify token.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkFulfilled records that an approved order was collected.
func (h *FulfillmentHandler) MarkFulfilled(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.fulfillmentService.MarkFulfilled(orderID)
	if err != nil {
		utils.LogError(err, "MarkFulfilled: Error from fulfillmentService.MarkFulfilled")
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		} else if errors.Is(err, services.ErrAlreadyFulfilled) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order has already been collected.", err.Error()))
		} else if errors.Is(err, services.ErrOrderNotApproved) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order is not approved for collection.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark order fulfilled.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}
