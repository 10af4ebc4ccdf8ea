package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Wallet identifiers
)

// Wallet Model
type Wallet struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`                        // Primary key
	Name          string    `gorm:"size:128;not null" json:"name"`                             // Display name
	Threshold     uint32    `gorm:"not null" json:"threshold"`                                 // Quorum in weight units
	Address       string    `gorm:"size:56;uniqueIndex;not null" json:"address"`               // Stellar account id (G...)
	EncryptedSeed []byte    `json:"-"`                                                         // Sealed signing seed, empty when the wallet has none
	CreatedBy     uint      `gorm:"not null" json:"createdBy"`                                 // User that registered the wallet
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`                           // Creation time
	Signers       []Signer  `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE;" json:"-"` // Signer roster
}

// HasSeed reports whether the wallet carries its own encrypted signing key.
func (w *Wallet) HasSeed() bool {
	return len(w.EncryptedSeed) > 0
}

// Signer returns the roster entry for userID.
func (w *Wallet) Signer(userID uint) (Signer, bool) {
	for _, s := range w.Signers {
		if s.UserID == userID {
			return s, true
		}
	}
	return Signer{}, false
}

// Signer Model, one row per (wallet, user)
type Signer struct {
	WalletID  uuid.UUID `gorm:"type:char(36);primaryKey" json:"walletId"` // Composite key part
	UserID    uint      `gorm:"primaryKey;index" json:"userId"`           // Composite key part
	Weight    uint32    `gorm:"not null;default:1" json:"weight"`         // Voting weight, at least 1
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`          // Creation time
}

// TotalWeight sums the weight of every signer in the roster.
func TotalWeight(signers []Signer) uint64 {
	var total uint64
	for _, s := range signers {
		total += uint64(s.Weight)
	}
	return total
}
