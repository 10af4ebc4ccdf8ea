package api

import (
	"net/http" // HTTP status codes

	"multisig_wallet/internal/approval" // Approval engine
	"multisig_wallet/internal/domain"   // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
	"gorm.io/gorm"               // GORM ORM library
)

// SignerRequest is one roster entry of a new wallet
type SignerRequest struct {
	UserID uint    `json:"userId" binding:"required"` // Registered user ID
	Weight *uint32 `json:"weight"`                    // Defaults to 1
}

// CreateWalletRequest is the body of POST /wallets
type CreateWalletRequest struct {
	Name       string          `json:"name"`       // Display name
	Threshold  uint32          `json:"threshold"`  // Quorum in weight units
	Address    string          `json:"address"`    // Ledger account id, optional with signingKey
	SigningKey string          `json:"signingKey"` // Secret seed, stored encrypted
	Signers    []SignerRequest `json:"signers"`    // Roster
}

// CreateWalletHandler registers a shared wallet with the caller on its roster
func CreateWalletHandler(db *gorm.DB, engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c) // Get userID from context
		if !ok {
			return
		}
		var req CreateWalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Every signer must be a registered user
		ids := make([]uint, 0, len(req.Signers))
		signers := make([]approval.SignerInput, 0, len(req.Signers))
		for _, s := range req.Signers {
			ids = append(ids, s.UserID)
			signers = append(signers, approval.SignerInput{UserID: s.UserID, Weight: s.Weight})
		}
		if len(ids) > 0 {
			var known int64
			if err := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
				respondError(c, err)
				return
			}
			if int(known) != len(uniqueIDs(ids)) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown signer user id"})
				return
			}
		}

		summary, err := engine.RegisterWallet(c.Request.Context(), userID, approval.RegisterWalletInput{
			Name:       req.Name,
			Threshold:  req.Threshold,
			Address:    req.Address,
			SigningKey: req.SigningKey,
			Signers:    signers,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller
				"error":   err.Error(), // Rejection reason
			}).Warn("Wallet registration rejected")
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, summary)
	}
}

// uniqueIDs drops repeated IDs; the engine reports duplicates itself
func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ListWalletsHandler returns the wallets the caller signs for
func ListWalletsHandler(engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		wallets, err := engine.ListWallets(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallets": wallets})
	}
}

// GetWalletHandler returns a wallet with its roster and proposals
func GetWalletHandler(engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		walletID, ok := pathID(c)
		if !ok {
			return
		}
		detail, err := engine.GetWallet(c.Request.Context(), walletID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}
