// Package ledger is the boundary to the external payment network.
//
// The only implementation submits native XLM payments through a Stellar
// Horizon server. Everything the approval core needs from the network is
// expressed by Client so tests can substitute an in-memory ledger.
package ledger

import (
	"context" // Request scoping
	"fmt"     // Error wrapping

	"github.com/shopspring/decimal" // Fixed-point amounts
	"github.com/stellar/go/keypair" // Seed parsing
	"github.com/stellar/go/strkey"  // Address validation
)

const (
	// AmountScale is the number of fractional digits the ledger accepts.
	AmountScale = 7
	// MaxMemoBytes is the longest text memo a payment may carry.
	MaxMemoBytes = 28
)

// PaymentRequest is a single payment signed by Seed on behalf of Source.
type PaymentRequest struct {
	Source      string          // Paying account
	Seed        string          // Secret seed controlling Source
	Destination string          // Receiving account
	Amount      decimal.Decimal // Amount in whole units
	Memo        string          // Optional text memo
}

// Client validates addresses and submits payments.
type Client interface {
	IsValidAddress(address string) bool
	// SubmitPayment returns the ledger transaction id. Failures are *Error.
	SubmitPayment(ctx context.Context, req PaymentRequest) (string, error)
}

// IsValidAddress reports whether address is a well formed account id.
func IsValidAddress(address string) bool {
	return strkey.IsValidEd25519PublicKey(address)
}

// AddressFromSeed derives the account id controlled by a secret seed.
func AddressFromSeed(seed string) (string, error) {
	kp, err := keypair.ParseFull(seed)
	if err != nil {
		return "", fmt.Errorf("parse signing key: %w", err)
	}
	return kp.Address(), nil
}

// ValidAmount reports whether amount is positive and representable on the ledger.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(AmountScale)) &&
		amount.LessThanOrEqual(maxAmount)
}

// maxAmount is the largest int64 stroop value expressed in whole units.
var maxAmount = decimal.RequireFromString("922337203685.4775807")
