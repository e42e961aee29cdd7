package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// BalanceCache implements domain.BalanceCache using Redis hashes. Each
// store's balances live at key "balance:{storeID}" with fields "wallet"
// and "escrow", stored as exact decimal strings. The database row stays
// authoritative; every settlement invalidates this cache.
type BalanceCache struct {
	rdb *redis.Client
}

// NewBalanceCache creates a BalanceCache backed by the given Client.
func NewBalanceCache(c *Client) *BalanceCache {
	return &BalanceCache{rdb: c.Underlying()}
}

func balanceKey(storeID string) string {
	return "balance:" + storeID
}

// Set stores the balances with a TTL.
func (bc *BalanceCache) Set(ctx context.Context, storeID string, wallet, escrow decimal.Decimal, ttl time.Duration) error {
	key := balanceKey(storeID)
	fields := map[string]interface{}{
		"wallet": wallet.StringFixed(2),
		"escrow": escrow.StringFixed(2),
	}

	pipe := bc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set balance %s: %w", storeID, err)
	}
	return nil
}

// Get retrieves cached balances. ok is false on a miss.
func (bc *BalanceCache) Get(ctx context.Context, storeID string) (wallet, escrow decimal.Decimal, ok bool, err error) {
	vals, err := bc.rdb.HGetAll(ctx, balanceKey(storeID)).Result()
	if err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("redis: get balance %s: %w", storeID, err)
	}
	if len(vals) == 0 {
		return decimal.Zero, decimal.Zero, false, nil
	}

	walletStr, hasWallet := vals["wallet"]
	escrowStr, hasEscrow := vals["escrow"]
	if !hasWallet || !hasEscrow {
		return decimal.Zero, decimal.Zero, false, nil
	}

	if wallet, err = decimal.NewFromString(walletStr); err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("redis: parse wallet %s: %w", storeID, err)
	}
	if escrow, err = decimal.NewFromString(escrowStr); err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("redis: parse escrow %s: %w", storeID, err)
	}
	return wallet, escrow, true, nil
}

// Invalidate drops the cached balances for a store.
func (bc *BalanceCache) Invalidate(ctx context.Context, storeID string) error {
	if err := bc.rdb.Del(ctx, balanceKey(storeID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate balance %s: %w", storeID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BalanceCache = (*BalanceCache)(nil)
