package api

import (
	"multisig_wallet/internal/approval"   // Approval engine
	"multisig_wallet/internal/middleware" // Custom package for middleware
	"multisig_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Deps are the collaborators the HTTP handlers need
type Deps struct {
	DB        *gorm.DB         // Users and admin queries
	Engine    *approval.Engine // Wallet and proposal operations
	Cache     *utils.Cache     // Admin listing cache
	JWTSecret string           // Token signing secret
}

// RegisterRoutes mounts every route on r
func RegisterRoutes(r gin.IRouter, d Deps) {
	// Auth routes
	r.POST("/user", RegisterHandler(d.DB))          // Registration endpoint
	r.GET("/user", LoginHandler(d.DB, d.JWTSecret)) // Login endpoint

	auth := middleware.JWTAuthMiddleware(d.JWTSecret)

	// Wallet routes (protected by JWT)
	wallets := r.Group("/wallets", auth)
	wallets.POST("", CreateWalletHandler(d.DB, d.Engine))           // Register wallet
	wallets.GET("", ListWalletsHandler(d.Engine))                   // Wallets the caller signs for
	wallets.GET("/:id", GetWalletHandler(d.Engine))                 // Wallet with roster and proposals
	wallets.POST("/:id/proposals", CreateProposalHandler(d.Engine)) // Propose a payment

	// Proposal routes (protected by JWT)
	proposals := r.Group("/proposals", auth)
	proposals.GET("/:id", GetProposalHandler(d.Engine))      // Proposal with progress
	proposals.POST("/:id/approve", ApproveHandler(d.Engine)) // Approve, executes at quorum
	proposals.POST("/:id/execute", ExecuteHandler(d.Engine)) // Retry a failed execution

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/users", ListUsersHandler(d.DB, d.Cache))          // List users
	admin.GET("/proposals", ListProposalsHandler(d.Engine))       // List proposals
	admin.POST("/proposals/sweep", SweepExpiredHandler(d.Engine)) // Expire stale proposals
}
