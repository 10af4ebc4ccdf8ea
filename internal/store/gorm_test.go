package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"multisig_wallet/internal/db/dbtest"
	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedWallet(t *testing.T, s *store.GormStore) *domain.Wallet {
	t.Helper()
	w := &domain.Wallet{
		ID:        uuid.New(),
		Name:      "treasury",
		Threshold: 3,
		Address:   testAddress,
		CreatedBy: 1,
		Signers: []domain.Signer{
			{UserID: 1, Weight: 2},
			{UserID: 2, Weight: 1},
			{UserID: 3, Weight: 1},
		},
	}
	require.NoError(t, s.CreateWallet(context.Background(), w))
	return w
}

func seedProposal(t *testing.T, s *store.GormStore, walletID uuid.UUID, expiresAt time.Time) *domain.Proposal {
	t.Helper()
	p := &domain.Proposal{
		ID:          uuid.New(),
		WalletID:    walletID,
		ProposerID:  1,
		Destination: testAddress,
		Amount:      decimal.RequireFromString("100.00"),
		Memo:        "invoice 42",
		Status:      domain.StatusPending,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, s.CreateProposal(context.Background(), p))
	return p
}

func TestCreateWallet(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)

	got, err := s.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "treasury", got.Name)
	assert.Len(t, got.Signers, 3)
	assert.Equal(t, uint64(4), domain.TotalWeight(got.Signers))

	signer, err := s.GetSigner(ctx, w.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), signer.Weight)

	_, err = s.GetSigner(ctx, w.ID, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)

	wallets, err := s.ListWalletsForUser(ctx, 3)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, w.ID, wallets[0].ID)
}

func TestCreateWallet_DuplicateAddress(t *testing.T) {
	s := store.NewGormStore(dbtest.Open(t))
	seedWallet(t, s)

	err := s.CreateWallet(context.Background(), &domain.Wallet{
		ID:        uuid.New(),
		Name:      "copy",
		Threshold: 1,
		Address:   testAddress,
		Signers:   []domain.Signer{{UserID: 1, Weight: 1}},
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestGetWallet_NotFound(t *testing.T) {
	s := store.NewGormStore(dbtest.Open(t))
	_, err := s.GetWallet(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertApproval_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)
	p := seedProposal(t, s, w.ID, now.Add(time.Hour))

	inserted, err := s.InsertApproval(ctx, &domain.Approval{ProposalID: p.ID, SignerID: 2})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertApproval(ctx, &domain.Approval{ProposalID: p.ID, SignerID: 2})
	require.NoError(t, err)
	assert.False(t, inserted)

	approvals, err := s.ListApprovals(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, approvals, 1)
}

func TestClaim_SingleWinner(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)
	p := seedProposal(t, s, w.ID, now.Add(time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.Claim(ctx, p.ID, now)
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Claimed())
}

func TestClaim_RejectsExpiredAndTerminal(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)

	expired := seedProposal(t, s, w.ID, now)
	won, err := s.Claim(ctx, expired.ID, now)
	require.NoError(t, err)
	assert.False(t, won, "expiry equal to now is already elapsed")

	p := seedProposal(t, s, w.ID, now.Add(time.Hour))
	won, err = s.Claim(ctx, p.ID, now)
	require.NoError(t, err)
	require.True(t, won)

	ok, err := s.MarkExecuted(ctx, p.ID, "abc123", now)
	require.NoError(t, err)
	require.True(t, ok)

	won, err = s.Claim(ctx, p.ID, now)
	require.NoError(t, err)
	assert.False(t, won)

	ok, err = s.MarkExecuted(ctx, p.ID, "def456", now)
	require.NoError(t, err)
	assert.False(t, ok, "executed_at must not be overwritten")

	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, got.Status)
	require.NotNil(t, got.LedgerTxID)
	assert.Equal(t, "abc123", *got.LedgerTxID)
	assert.Nil(t, got.ExecutionStartedAt)
}

func TestReleaseClaim(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)
	p := seedProposal(t, s, w.ID, now.Add(time.Hour))

	ok, err := s.ReleaseClaim(ctx, p.ID, "nothing held")
	require.NoError(t, err)
	assert.False(t, ok)

	won, err := s.Claim(ctx, p.ID, now)
	require.NoError(t, err)
	require.True(t, won)

	ok, err = s.ReleaseClaim(ctx, p.ID, "insufficient reserve")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.ExecutionStartedAt)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "insufficient reserve", *got.LastError)

	won, err = s.Claim(ctx, p.ID, now)
	require.NoError(t, err)
	assert.True(t, won, "released claim can be won again")
}

func TestExpireIfStale(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)

	fresh := seedProposal(t, s, w.ID, now.Add(time.Minute))
	ok, err := s.ExpireIfStale(ctx, fresh.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	stale := seedProposal(t, s, w.ID, now.Add(-time.Minute))
	ok, err = s.ExpireIfStale(ctx, stale.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetProposal(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	// A held claim keeps the proposal pending past its expiry
	claimed := seedProposal(t, s, w.ID, now.Add(time.Minute))
	won, err := s.Claim(ctx, claimed.ID, now)
	require.NoError(t, err)
	require.True(t, won)
	ok, err = s.ExpireIfStale(ctx, claimed.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpireAllStale(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	w := seedWallet(t, s)
	seedProposal(t, s, w.ID, now.Add(-time.Hour))
	seedProposal(t, s, w.ID, now.Add(-time.Minute))
	seedProposal(t, s, w.ID, now.Add(time.Hour))

	n, err := s.ExpireAllStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	expired := domain.StatusExpired
	page, total, err := s.FindProposals(ctx, store.ProposalFilter{Status: &expired, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 2)
}
