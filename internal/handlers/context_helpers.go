package handlers

import (
	"net/http"
	"strconv"

	"mess_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// currentUserID pulls the authenticated user ID set by the auth middleware.
// Responds 401 and returns false when the context carries no identity.
func currentUserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	userID, ok := val.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Invalid user identity.", "Context user ID has unexpected type"))
		return 0, false
	}
	return userID, true
}

// currentUserRole pulls the authenticated role, defaulting to empty when absent.
func currentUserRole(c *gin.Context) string {
	if val, exists := c.Get("userRole"); exists {
		if role, ok := val.(string); ok {
			return role
		}
	}
	return ""
}

// pathID parses a numeric path parameter. Responds 400 and returns false on
// malformed input.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", name+" must be a number"))
		return 0, false
	}
	return id, true
}
