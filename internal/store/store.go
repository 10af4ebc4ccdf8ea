// Package store persists wallets, signer rosters, proposals and approvals.
//
// Every mutation of a proposal row is either an append-only approval insert
// or a single conditional UPDATE whose WHERE clause carries the expected
// state. Callers learn whether they won a transition from the affected row
// count, never from a prior read.
package store

import (
	"context" // Request scoping
	"errors"  // Sentinel errors
	"time"    // Transition timestamps

	"multisig_wallet/internal/domain" // Domain models

	"github.com/google/uuid" // Identifiers
)

var (
	// ErrNotFound is returned when a wallet, signer or proposal does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record already exists")
)

// WalletStore persists wallets and their signer roster.
type WalletStore interface {
	// CreateWallet writes the wallet and its Signers in one transaction.
	CreateWallet(ctx context.Context, w *domain.Wallet) error
	// GetWallet loads a wallet with its current roster.
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListSigners(ctx context.Context, walletID uuid.UUID) ([]domain.Signer, error)
	GetSigner(ctx context.Context, walletID uuid.UUID, userID uint) (*domain.Signer, error)
	ListWalletsForUser(ctx context.Context, userID uint) ([]domain.Wallet, error)
}

// ProposalFilter narrows an administrative proposal listing.
type ProposalFilter struct {
	Status *domain.ProposalStatus // Optional status filter
	Offset int                    // Rows to skip
	Limit  int                    // Page size
}

// ProposalStore persists proposals and their approvals.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *domain.Proposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)
	ListProposals(ctx context.Context, walletID uuid.UUID) ([]domain.Proposal, error)
	FindProposals(ctx context.Context, f ProposalFilter) ([]domain.Proposal, int64, error)

	// InsertApproval appends an approval. A duplicate (proposal, signer)
	// pair is not an error; inserted reports whether a new row was written.
	InsertApproval(ctx context.Context, a *domain.Approval) (inserted bool, err error)
	ListApprovals(ctx context.Context, proposalID uuid.UUID) ([]domain.Approval, error)

	// ExpireIfStale flips a pending, unclaimed, unexecuted proposal whose
	// expiry is at or before now to expired.
	ExpireIfStale(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// ExpireAllStale applies ExpireIfStale to every matching row.
	ExpireAllStale(ctx context.Context, now time.Time) (int64, error)
	// Claim sets the execution marker if the proposal is pending, unclaimed,
	// unexecuted and not yet expired at now.
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// MarkExecuted records a successful submission for a claimed proposal.
	MarkExecuted(ctx context.Context, id uuid.UUID, txID string, now time.Time) (bool, error)
	// ReleaseClaim clears the execution marker and records lastErr.
	ReleaseClaim(ctx context.Context, id uuid.UUID, lastErr string) (bool, error)
}
