package approval

import (
	"context"

	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/store"

	"github.com/sirupsen/logrus"
)

// ExpiryPolicy expires stale proposals when they are read. There is no
// background timer; a proposal nobody reads stays pending at rest and the
// execution claim re-checks expiry itself.
type ExpiryPolicy struct {
	proposals store.ProposalStore
	now       Clock
	log       logrus.FieldLogger
}

// Apply flips p to expired if it is stale and returns the current row.
// p is returned unchanged when no transition applies.
func (e *ExpiryPolicy) Apply(ctx context.Context, p *domain.Proposal) (*domain.Proposal, error) {
	now := e.now()
	if !p.Stale(now) {
		return p, nil
	}
	flipped, err := e.proposals.ExpireIfStale(ctx, p.ID, now)
	if err != nil {
		return nil, err
	}
	if flipped {
		e.log.WithFields(logrus.Fields{
			"proposal_id": p.ID,
			"wallet_id":   p.WalletID,
			"expires_at":  p.ExpiresAt,
		}).Info("Proposal expired")
	}
	// Re-read either way; a concurrent claim or expiry may have won
	return e.proposals.GetProposal(ctx, p.ID)
}

// Sweep expires every stale proposal in one conditional update.
func (e *ExpiryPolicy) Sweep(ctx context.Context) (int64, error) {
	n, err := e.proposals.ExpireAllStale(ctx, e.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.WithField("count", n).Info("Expired stale proposals")
	}
	return n, nil
}
