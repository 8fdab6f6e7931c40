package handlers

import (
	"errors"
	"net/http"

	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/services"
	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// CreateMenu handles the creation of a new daily menu.
func (h *MenuHandler) CreateMenu(c *gin.Context) {
	var req services.CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	menu, err := h.menuService.CreateMenu(req, actorID)
	if err != nil {
		utils.LogError(err, "CreateMenu: Error from menuService.CreateMenu")
		if errors.Is(err, services.ErrMenuValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create menu.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, menu)
}

// GetMenus handles fetching menus with optional filters.
func (h *MenuHandler) GetMenus(c *gin.Context) {
	var filters models.MenuFilters
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	if mealType := c.Query("meal_type"); mealType != "" {
		filters.MealType = &mealType
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}

	menus, err := h.menuService.GetMenus(filters)
	if err != nil {
		if errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date filter.", err.Error()))
		} else {
			utils.LogError(err, "GetMenus: Error from menuService.GetMenus")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menus.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, menus)
}

// GetMenuByID handles fetching a single menu.
func (h *MenuHandler) GetMenuByID(c *gin.Context) {
	menuID, ok := pathID(c, "id")
	if !ok {
		return
	}

	menu, err := h.menuService.GetMenuByID(menuID)
	if err != nil {
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
		} else {
			utils.LogError(err, "GetMenuByID: Error from menuService.GetMenuByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, menu)
}

// UpdateMenu handles partial menu updates.
func (h *MenuHandler) UpdateMenu(c *gin.Context) {
	menuID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	menu, err := h.menuService.UpdateMenu(menuID, req, actorID)
	if err != nil {
		utils.LogError(err, "UpdateMenu: Error from menuService.UpdateMenu")
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
		} else if errors.Is(err, services.ErrMenuValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update menu.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, menu)
}

// DeleteMenu handles menu soft-deletion.
func (h *MenuHandler) DeleteMenu(c *gin.Context) {
	menuID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.menuService.DeleteMenu(menuID); err != nil {
		utils.LogError(err, "DeleteMenu: Error from menuService.DeleteMenu")
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
		} else if errors.Is(err, services.ErrMenuInUse) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu has active orders and cannot be deleted.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete menu.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu deleted successfully"})
}

// GetCapacityMovements handles fetching the capacity audit trail for a menu.
func (h *MenuHandler) GetCapacityMovements(c *gin.Context) {
	menuID, ok := pathID(c, "id")
	if !ok {
		return
	}

	movements, err := h.menuService.GetCapacityMovements(menuID)
	if err != nil {
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error()))
		} else {
			utils.LogError(err, "GetCapacityMovements: Error from menuService.GetCapacityMovements")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch capacity movements.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, movements)
}
