package domain

import (
	"database/sql/driver" // Valuer interface for ProposalStatus
	"fmt"                 // Error formatting
	"time"                // Timestamps

	"github.com/google/uuid"        // Proposal identifiers
	"github.com/shopspring/decimal" // Fixed-point amounts
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"  // Awaiting quorum or execution
	StatusExecuted ProposalStatus = "executed" // Submitted to the ledger, terminal
	StatusExpired  ProposalStatus = "expired"  // Expiry window elapsed, terminal
)

// Valid reports whether s is one of the three known states.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusExecuted, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s ProposalStatus) Terminal() bool {
	return s == StatusExecuted || s == StatusExpired
}

// Scan implements sql.Scanner and rejects unknown states.
func (s *ProposalStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("proposal status: unsupported type %T", value)
	}
	st := ProposalStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("proposal status: unknown state %q", raw)
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s ProposalStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("proposal status: unknown state %q", string(s))
	}
	return string(s), nil
}

// Proposal Model
type Proposal struct {
	ID                 uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`            // Primary key
	WalletID           uuid.UUID       `gorm:"type:char(36);index;not null" json:"walletId"`  // Owning wallet
	ProposerID         uint            `gorm:"not null" json:"proposerId"`                    // Signer that created it
	Destination        string          `gorm:"size:56;not null" json:"destination"`           // Payee ledger address
	Amount             decimal.Decimal `gorm:"type:numeric(20,7);not null" json:"amount"`     // Payment amount
	Memo               string          `gorm:"size:28" json:"memo,omitempty"`                 // Text memo attached to the payment
	Status             ProposalStatus  `gorm:"type:varchar(16);index;not null" json:"status"` // Lifecycle state
	ExpiresAt          time.Time       `gorm:"index;not null" json:"expiresAt"`               // End of the approval window
	ExecutionStartedAt *time.Time      `json:"executionStartedAt,omitempty"`                  // Claim marker, non-nil while a submission is in flight
	ExecutedAt         *time.Time      `json:"executedAt,omitempty"`                          // Set once on success
	LedgerTxID         *string         `gorm:"size:64" json:"ledgerTxId,omitempty"`           // Ledger transaction hash
	LastError          *string         `gorm:"type:text" json:"lastError,omitempty"`          // Last execution failure
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"createdAt"`               // Creation time
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`               // Last mutation
}

// Claimed reports whether an execution claim is currently held.
func (p *Proposal) Claimed() bool {
	return p.ExecutionStartedAt != nil
}

// Stale reports whether the proposal may be flipped to expired at now.
func (p *Proposal) Stale(now time.Time) bool {
	return p.Status == StatusPending &&
		!p.ExpiresAt.After(now) &&
		p.ExecutionStartedAt == nil &&
		p.ExecutedAt == nil
}

// Approval Model, append-only
type Approval struct {
	ProposalID uuid.UUID `gorm:"type:char(36);primaryKey" json:"proposalId"` // Composite key part
	SignerID   uint      `gorm:"primaryKey" json:"signerId"`                 // Composite key part
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`            // Creation time
}
