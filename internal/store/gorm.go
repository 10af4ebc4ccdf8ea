package store

import (
	"context" // Request scoping
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"time"    // Transition timestamps

	"multisig_wallet/internal/domain" // Domain models

	"github.com/google/uuid" // Identifiers
	"gorm.io/gorm"           // GORM ORM library
	"gorm.io/gorm/clause"    // Conflict clauses
)

// GormStore implements WalletStore and ProposalStore on top of GORM.
type GormStore struct {
	db *gorm.DB
}

var (
	_ WalletStore   = (*GormStore)(nil)
	_ ProposalStore = (*GormStore)(nil)
)

// NewGormStore wraps an open GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return err
}

// CreateWallet persists the wallet and signer rows atomically.
func (s *GormStore) CreateWallet(ctx context.Context, w *domain.Wallet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		// Address is unique, check first so both drivers report the same error
		if err := tx.Model(&domain.Wallet{}).Where("address = ?", w.Address).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("wallet address %s: %w", w.Address, ErrConflict)
		}
		signers := w.Signers
		w.Signers = nil // Signers are written explicitly below
		if err := tx.Create(w).Error; err != nil {
			return mapErr(err)
		}
		for i := range signers {
			signers[i].WalletID = w.ID
		}
		if len(signers) > 0 {
			if err := tx.Create(&signers).Error; err != nil {
				return mapErr(err)
			}
		}
		w.Signers = signers
		return nil // Commit transaction
	})
}

// GetWallet loads a wallet and its signers.
func (s *GormStore) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.db.WithContext(ctx).
		Preload("Signers", func(db *gorm.DB) *gorm.DB { return db.Order("user_id asc") }).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &w, nil
}

func (s *GormStore) ListSigners(ctx context.Context, walletID uuid.UUID) ([]domain.Signer, error) {
	var signers []domain.Signer
	if err := s.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("user_id asc").Find(&signers).Error; err != nil {
		return nil, err
	}
	return signers, nil
}

func (s *GormStore) GetSigner(ctx context.Context, walletID uuid.UUID, userID uint) (*domain.Signer, error) {
	var signer domain.Signer
	err := s.db.WithContext(ctx).Where("wallet_id = ? AND user_id = ?", walletID, userID).First(&signer).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &signer, nil
}

func (s *GormStore) ListWalletsForUser(ctx context.Context, userID uint) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	err := s.db.WithContext(ctx).
		Joins("JOIN signers ON signers.wallet_id = wallets.id").
		Where("signers.user_id = ?", userID).
		Order("wallets.created_at desc").
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

func (s *GormStore) CreateProposal(ctx context.Context, p *domain.Proposal) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) GetProposal(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	var p domain.Proposal
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *GormStore) ListProposals(ctx context.Context, walletID uuid.UUID) ([]domain.Proposal, error) {
	var proposals []domain.Proposal
	err := s.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("created_at desc").Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// FindProposals returns one page of proposals and the total match count.
func (s *GormStore) FindProposals(ctx context.Context, f ProposalFilter) ([]domain.Proposal, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Proposal{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var proposals []domain.Proposal
	if err := q.Order("created_at desc").Offset(f.Offset).Limit(f.Limit).Find(&proposals).Error; err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

// InsertApproval appends an approval row, ignoring duplicates.
func (s *GormStore) InsertApproval(ctx context.Context, a *domain.Approval) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil // Lost a race with an identical insert
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListApprovals(ctx context.Context, proposalID uuid.UUID) ([]domain.Approval, error) {
	var approvals []domain.Approval
	if err := s.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Order("created_at asc").Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// transition applies updates to proposal rows matching the condition and
// reports how many rows changed. The condition carries the expected state,
// so concurrent callers are ordered by the database alone.
func (s *GormStore) transition(ctx context.Context, updates map[string]any, cond string, args ...any) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.Proposal{}).Where(cond, args...).Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

const staleCond = "status = ? AND execution_started_at IS NULL AND executed_at IS NULL AND expires_at <= ?"

func (s *GormStore) ExpireIfStale(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	n, err := s.transition(ctx, map[string]any{"status": domain.StatusExpired},
		"id = ? AND "+staleCond, id, domain.StatusPending, now)
	return n == 1, err
}

func (s *GormStore) ExpireAllStale(ctx context.Context, now time.Time) (int64, error) {
	return s.transition(ctx, map[string]any{"status": domain.StatusExpired},
		staleCond, domain.StatusPending, now)
}

func (s *GormStore) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	n, err := s.transition(ctx, map[string]any{"execution_started_at": now},
		"id = ? AND status = ? AND executed_at IS NULL AND execution_started_at IS NULL AND expires_at > ?",
		id, domain.StatusPending, now)
	return n == 1, err
}

func (s *GormStore) MarkExecuted(ctx context.Context, id uuid.UUID, txID string, now time.Time) (bool, error) {
	n, err := s.transition(ctx, map[string]any{
		"status":               domain.StatusExecuted,
		"executed_at":          now,
		"ledger_tx_id":         txID,
		"last_error":           nil,
		"execution_started_at": nil,
	}, "id = ? AND status = ? AND executed_at IS NULL AND execution_started_at IS NOT NULL", id, domain.StatusPending)
	return n == 1, err
}

func (s *GormStore) ReleaseClaim(ctx context.Context, id uuid.UUID, lastErr string) (bool, error) {
	n, err := s.transition(ctx, map[string]any{
		"execution_started_at": nil,
		"last_error":           lastErr,
	}, "id = ? AND status = ? AND execution_started_at IS NOT NULL", id, domain.StatusPending)
	return n == 1, err
}
