package store_test

import (
	"context"
	"io"
	"testing"
	"time"

	"multisig_wallet/internal/db/dbtest"
	"multisig_wallet/internal/domain"
	"multisig_wallet/internal/store"
	"multisig_wallet/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCachedStore(t *testing.T) (*store.CachedWalletStore, *store.GormStore, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gdb := dbtest.Open(t)
	inner := store.NewGormStore(gdb)
	return store.NewCachedWalletStore(inner, utils.NewCache(rdb, "multisig", time.Minute), logger), inner, gdb, mr
}

func TestCachedWalletStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cached, inner, gdb, mr := newCachedStore(t)
	w := seedWallet(t, inner)
	require.NoError(t, gdb.Model(&domain.Wallet{}).Where("id = ?", w.ID).Update("encrypted_seed", []byte{1, 2, 3}).Error)

	got, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("multisig:wallet:"+w.ID.String()))

	// Wallet fields come from Redis until the entry ages out
	require.NoError(t, gdb.Model(&domain.Wallet{}).Where("id = ?", w.ID).Update("name", "renamed").Error)

	again, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Name, again.Name)
	assert.Equal(t, []byte{1, 2, 3}, again.EncryptedSeed)
	assert.Len(t, again.Signers, 3)

	mr.FastForward(2 * time.Minute)
	fresh, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", fresh.Name)
}

func TestCachedWalletStore_RosterIsNeverCached(t *testing.T) {
	ctx := context.Background()
	cached, inner, gdb, _ := newCachedStore(t)
	w := seedWallet(t, inner)

	_, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)

	require.NoError(t, gdb.Where("wallet_id = ? AND user_id = ?", w.ID, 1).Delete(&domain.Signer{}).Error)

	got, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Signers, 2)
	_, listed := got.Signer(1)
	assert.False(t, listed)
	assert.Equal(t, uint64(2), domain.TotalWeight(got.Signers))
}

func TestCachedWalletStore_RedisDown(t *testing.T) {
	ctx := context.Background()
	cached, inner, _, mr := newCachedStore(t)
	w := seedWallet(t, inner)
	mr.Close()

	got, err := cached.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	_, err = cached.GetWallet(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
