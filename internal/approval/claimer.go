package approval

import (
	"context"

	"multisig_wallet/internal/store"

	"github.com/google/uuid"
)

// ExecutionClaimer grants one caller the right to submit a proposal.
//
// The grant is a single conditional UPDATE; the store's write order picks
// the winner. No in-process lock is involved, so approvals handled by
// different processes are serialized the same way.
type ExecutionClaimer struct {
	proposals store.ProposalStore
	now       Clock
}

// TryClaim reports whether this caller won the claim.
func (c *ExecutionClaimer) TryClaim(ctx context.Context, proposalID uuid.UUID) (bool, error) {
	return c.proposals.Claim(ctx, proposalID, c.now())
}
