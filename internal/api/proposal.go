package api

import (
	"context"  // Request scoping
	"net/http" // HTTP status codes

	"multisig_wallet/internal/approval" // Approval engine

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/google/uuid"        // Proposal identifiers
	"github.com/shopspring/decimal" // Exact amounts
)

// CreateProposalRequest is the body of POST /wallets/:id/proposals
type CreateProposalRequest struct {
	Destination string          `json:"destination" binding:"required"` // Ledger account to pay
	Amount      decimal.Decimal `json:"amount"`                         // Accepts "12.5" or 12.5
	Memo        string          `json:"memo"`                           // Optional text memo
}

// CreateProposalHandler opens a payment proposal on a wallet
func CreateProposalHandler(engine *approval.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		walletID, ok := pathID(c)
		if !ok {
			return
		}
		var req CreateProposalRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		view, err := engine.CreateProposal(c.Request.Context(), walletID, userID, approval.ProposalInput{
			Destination: req.Destination,
			Amount:      req.Amount,
			Memo:        req.Memo,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

// GetProposalHandler returns a proposal and its quorum progress
func GetProposalHandler(engine *approval.Engine) gin.HandlerFunc {
	return proposalAction(engine.GetProposal)
}

// ApproveHandler records the caller's approval and executes at quorum
func ApproveHandler(engine *approval.Engine) gin.HandlerFunc {
	return proposalAction(engine.Approve)
}

// ExecuteHandler retries execution of an approved proposal
func ExecuteHandler(engine *approval.Engine) gin.HandlerFunc {
	return proposalAction(engine.Execute)
}

type proposalOp func(ctx context.Context, proposalID uuid.UUID, userID uint) (*approval.ProposalView, error)

// proposalAction adapts an engine call on /proposals/:id to a handler
func proposalAction(op proposalOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		proposalID, ok := pathID(c)
		if !ok {
			return
		}
		view, err := op(c.Request.Context(), proposalID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
