package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Cache key construction

	"multisig_wallet/internal/approval" // Approval engine
	"multisig_wallet/internal/domain"   // Importing domain models
	"multisig_wallet/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
	"gorm.io/gorm"               // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID          uint   `json:"id"`          // User ID
	Username    string `json:"username"`    // Username
	Role        string `json:"role"`        // User role
	WalletCount int64  `json:"walletCount"` // Wallets the user signs for
}

// usersPage is the cached body of GET /admin/users
type usersPage struct {
	Users      []UserAdminResponse `json:"users"`       // List of users
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of users
	TotalPages int                 `json:"total_pages"` // Total pages
	Cached     bool                `json:"cached"`      // Served from Redis
}

// ListUsersHandler returns all users with the number of wallets each signs for
func ListUsersHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pageParams(c)
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached usersPage
		// If cached data found, return it
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}

		var total int64 // Total user count
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User // Slice to hold users
		if err := db.WithContext(ctx).Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}

		// Count roster memberships for the page in one grouped query
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var counts []struct {
			UserID uint
			N      int64
		}
		if len(ids) > 0 {
			if err := db.WithContext(ctx).Model(&domain.Signer{}).
				Select("user_id, count(*) as n").
				Where("user_id IN ?", ids).
				Group("user_id").
				Scan(&counts).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count wallets"})
				return
			}
		}
		walletCounts := make(map[uint]int64, len(counts))
		for _, row := range counts {
			walletCounts[row.UserID] = row.N
		}

		resp := usersPage{
			Users:      make([]UserAdminResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		}
		for i, u := range users {
			resp.Users[i] = UserAdminResponse{
				ID:          u.ID,               // User ID
				Username:    u.Username,         // Username
				Role:        u.Role,             // User role
				WalletCount: walletCounts[u.ID], // Roster memberships
			}
		}
		// Cache the response for future requests
		if err := cache.Set(ctx, cacheKey, resp); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to cache user list")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListProposalsHandler returns proposals across all wallets, optionally filtered by status
func ListProposalsHandler(engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		var status *domain.ProposalStatus
		if s := c.Query("status"); s != "" {
			st := domain.ProposalStatus(s)
			status = &st
		}
		proposals, total, err := engine.ListProposals(c.Request.Context(), status, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"proposals":   proposals,                   // Page of proposals
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total matching proposals
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// SweepExpiredHandler expires every stale pending proposal
func SweepExpiredHandler(engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := engine.SweepExpired(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"expired": n})
	}
}
