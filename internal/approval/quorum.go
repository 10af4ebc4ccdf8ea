package approval

import (
	"context"

	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/store"
)

// QuorumCalculator sums the weight of approvals against a wallet's current roster.
type QuorumCalculator struct {
	proposals store.ProposalStore
}

// ComputeProgress reads the proposal's approvals and tallies them against
// w's roster. It has no side effects.
func (q *QuorumCalculator) ComputeProgress(ctx context.Context, p *domain.Proposal, w *domain.Wallet) (domain.Progress, error) {
	approvals, err := q.proposals.ListApprovals(ctx, p.ID)
	if err != nil {
		return domain.Progress{}, err
	}
	return Tally(approvals, w.Signers, w.Threshold), nil
}

// Tally computes progress from approvals and a roster. Each signer counts
// once, and approvals from users no longer on the roster count zero.
func Tally(approvals []domain.Approval, roster []domain.Signer, threshold uint32) domain.Progress {
	weights := make(map[uint]uint32, len(roster))
	for _, s := range roster {
		weights[s.UserID] = s.Weight
	}
	seen := make(map[uint]struct{}, len(approvals))
	var approved uint64
	for _, a := range approvals {
		if _, dup := seen[a.SignerID]; dup {
			continue
		}
		seen[a.SignerID] = struct{}{}
		approved += uint64(weights[a.SignerID])
	}
	return domain.NewProgress(approved, threshold)
}
