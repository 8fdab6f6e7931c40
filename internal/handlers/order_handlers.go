package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/services"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// PlaceOrder handles a student placing an order against an open menu.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.PlaceOrder(userID, req)
	if err != nil {
		utils.LogError(err, "PlaceOrder: Error from orderService.PlaceOrder")
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
		} else if errors.Is(err, services.ErrMenuClosed) || errors.Is(err, services.ErrDeadlinePassed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu is not accepting orders.", err.Error()))
		} else if errors.Is(err, services.ErrInsufficientCapacity) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough remaining capacity.", err.Error()))
		} else if errors.Is(err, services.ErrDuplicateOrder) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "You already have an active order for this menu.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidQuantity) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order quantity.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to place order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching all orders with filters (admin view).
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &userID
	}
	if menuIDStr := c.Query("menu_id"); menuIDStr != "" {
		menuID, err := strconv.ParseInt(menuIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu_id format.", err.Error()))
			return
		}
		filters.MenuID = &menuID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	} else {
		filters.Page = 1
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	} else {
		filters.PageSize = 10
	}

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetMyOrders handles fetching the authenticated student's order history.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.GetMyOrders(userID)
	if err != nil {
		utils.LogError(err, "GetMyOrders: Error from orderService.GetMyOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetMyOrderForMenu returns the caller's live order for one menu, if any.
func (h *OrderHandler) GetMyOrderForMenu(c *gin.Context) {
	menuID, ok := pathID(c, "menu_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetUserOrderForMenu(userID, menuID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No active order for this menu.", err.Error()))
		} else {
			utils.LogError(err, "GetMyOrderForMenu: Error from orderService.GetUserOrderForMenu")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// ApproveOrder handles admin approval of a pending order.
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.ApproveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ApproveOrder(orderID, req, actorID)
	if err != nil {
		utils.LogError(err, "ApproveOrder: Error from orderService.ApproveOrder")
		h.respondTransitionError(c, err, "Failed to approve order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// RejectOrder handles admin rejection of a pending order.
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.RejectOrder(orderID)
	if err != nil {
		utils.LogError(err, "RejectOrder: Error from orderService.RejectOrder")
		h.respondTransitionError(c, err, "Failed to reject order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// WithdrawOrder lets a student withdraw their own pending order.
func (h *OrderHandler) WithdrawOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.orderService.WithdrawOrder(orderID, userID); err != nil {
		utils.LogError(err, "WithdrawOrder: Error from orderService.WithdrawOrder")
		h.respondTransitionError(c, err, "Failed to withdraw order.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order withdrawn successfully"})
}

// RequestCancellation lets a student ask to cancel an approved order.
func (h *OrderHandler) RequestCancellation(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.RequestCancellation(orderID, userID)
	if err != nil {
		utils.LogError(err, "RequestCancellation: Error from orderService.RequestCancellation")
		h.respondTransitionError(c, err, "Failed to request cancellation.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ApproveCancellation handles admin approval of a cancellation request.
func (h *OrderHandler) ApproveCancellation(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.orderService.ApproveCancellation(orderID, actorID); err != nil {
		utils.LogError(err, "ApproveCancellation: Error from orderService.ApproveCancellation")
		h.respondTransitionError(c, err, "Failed to approve cancellation.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation approved, capacity restored"})
}

// RejectCancellation handles admin denial of a cancellation request.
func (h *OrderHandler) RejectCancellation(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.RejectCancellation(orderID)
	if err != nil {
		utils.LogError(err, "RejectCancellation: Error from orderService.RejectCancellation")
		h.respondTransitionError(c, err, "Failed to reject cancellation.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// respondTransitionError maps the shared state-machine errors to HTTP responses.
func (h *OrderHandler) respondTransitionError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrOrderNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	} else if errors.Is(err, services.ErrMenuNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
	} else if errors.Is(err, services.ErrNotOrderOwner) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Order belongs to a different user.", err.Error()))
	} else if errors.Is(err, services.ErrInvalidTransition) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order status does not permit this operation.", err.Error()))
	} else if errors.Is(err, services.ErrInsufficientCapacity) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough remaining capacity.", err.Error()))
	} else if errors.Is(err, services.ErrInvalidQuantity) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid quantity.", err.Error()))
	} else if errors.Is(err, services.ErrTokenMint) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Could not issue a pickup token, please retry.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}
