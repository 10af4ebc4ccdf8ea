package store

import (
	"context" // Request scoping

	"multisig_wallet/internal/domain" // Domain models
	"multisig_wallet/internal/utils"  // Redis cache

	"github.com/google/uuid"     // Identifiers
	"github.com/sirupsen/logrus" // Logging
)

// CachedWalletStore serves the immutable wallet fields of GetWallet from
// Redis. The signer roster is always read from the inner store so
// authorization and quorum see the current roster.
type CachedWalletStore struct {
	WalletStore
	cache *utils.Cache
	log   logrus.FieldLogger
}

// NewCachedWalletStore wraps inner with a read-through cache.
func NewCachedWalletStore(inner WalletStore, cache *utils.Cache, log logrus.FieldLogger) *CachedWalletStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedWalletStore{WalletStore: inner, cache: cache, log: log}
}

// cachedWallet carries the sealed seed, which domain.Wallet hides from JSON.
type cachedWallet struct {
	Wallet *domain.Wallet `json:"wallet"`
	Seed   []byte         `json:"seed,omitempty"`
}

func walletKey(id uuid.UUID) string { return "wallet:" + id.String() }

// GetWallet returns the wallet with a freshly loaded roster. Redis
// failures fall through to the inner store.
func (s *CachedWalletStore) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var cw cachedWallet
	found, err := s.cache.Get(ctx, walletKey(id), &cw)
	if err != nil {
		s.log.WithFields(logrus.Fields{"wallet_id": id, "error": err.Error()}).Warn("Wallet cache read failed")
	}
	if found && err == nil && cw.Wallet != nil {
		signers, err := s.WalletStore.ListSigners(ctx, id)
		if err != nil {
			return nil, err
		}
		cw.Wallet.EncryptedSeed = cw.Seed
		cw.Wallet.Signers = signers
		return cw.Wallet, nil
	}

	w, err := s.WalletStore.GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, walletKey(id), cachedWallet{Wallet: w, Seed: w.EncryptedSeed}); err != nil {
		s.log.WithFields(logrus.Fields{"wallet_id": id, "error": err.Error()}).Warn("Wallet cache write failed")
	}
	return w, nil
}
