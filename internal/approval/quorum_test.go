package approval

import (
	"testing"

	"multisig_wallet/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	roster := []domain.Signer{
		{UserID: 1, Weight: 2},
		{UserID: 2, Weight: 1},
		{UserID: 3, Weight: 1},
	}
	approvals := func(ids ...uint) []domain.Approval {
		out := make([]domain.Approval, 0, len(ids))
		for _, id := range ids {
			out = append(out, domain.Approval{SignerID: id})
		}
		return out
	}

	tests := []struct {
		name      string
		approvals []domain.Approval
		weight    uint64
		approved  bool
		summary   string
	}{
		{"none", nil, 0, false, "0 of 3 approved"},
		{"light signer", approvals(2), 1, false, "1 of 3 approved"},
		{"quorum reached", approvals(2, 1), 3, true, "3 of 3 approved"},
		{"above threshold", approvals(1, 2, 3), 4, true, "4 of 3 approved"},
		{"duplicates count once", approvals(2, 2, 2), 1, false, "1 of 3 approved"},
		{"off roster counts zero", approvals(9, 2), 1, false, "1 of 3 approved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tally(tt.approvals, roster, 3)
			assert.Equal(t, tt.weight, got.ApprovedWeight)
			assert.Equal(t, uint32(3), got.Threshold)
			assert.Equal(t, tt.approved, got.IsApproved)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}
