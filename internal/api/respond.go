package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"multisig_wallet/internal/approval"   // Engine error sentinels
	"multisig_wallet/internal/middleware" // Authenticated user lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Path identifiers
	"github.com/sirupsen/logrus" // Logging
)

// respondError maps an engine error to its HTTP status and JSON body
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, approval.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, approval.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, approval.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, approval.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, approval.ErrLedger):
		// The claim was released, the client may approve or execute again
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, approval.ErrFatalConfig):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "retryable": false})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route that failed
			"error": err.Error(),  // Underlying error
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser returns the authenticated user or writes 401
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// pathID parses the :id route parameter or writes 400
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page and page_size, defaulting to 1 and 20, capped at 100
func pageParams(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// totalPages rounds total/pageSize up
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
