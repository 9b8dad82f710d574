package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-ledger/internal/domain"
	apperrors "github.com/segyhp/loan-ledger/pkg/errors"
)

// Cache keys
const (
	LedgerKeyFmt  = "ledger:loan:%s"
	JobLockKeyFmt = "ledger:job:%s"
)

// DefaultLedgerTTL applies when a cache is built with a non-positive TTL.
const DefaultLedgerTTL = 5 * time.Minute

// NewClient connects to redis. On a failed ping the client is closed and
// nil is returned along with the error, so callers can run without a cache.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// LedgerCache stores reconciled loan ledgers. A nil client disables it.
type LedgerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLedgerCache(client *redis.Client, ttl time.Duration) *LedgerCache {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &LedgerCache{client: client, ttl: ttl}
}

func ledgerKey(loanID uuid.UUID) string {
	return fmt.Sprintf(LedgerKeyFmt, loanID)
}

// Get returns the cached ledger of a loan. A miss is (nil, false, nil).
func (c *LedgerCache) Get(ctx context.Context, loanID uuid.UUID) (*domain.LoanLedger, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, ledgerKey(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.WrapCacheError(err)
	}

	var ledger domain.LoanLedger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, false, apperrors.WrapCacheError(err)
	}
	return &ledger, true, nil
}

// Set caches a ledger for the configured TTL.
func (c *LedgerCache) Set(ctx context.Context, ledger *domain.LoanLedger) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(ledger)
	if err != nil {
		return apperrors.WrapCacheError(err)
	}
	if err := c.client.Set(ctx, ledgerKey(ledger.LoanID), data, c.ttl).Err(); err != nil {
		return apperrors.WrapCacheError(err)
	}
	return nil
}

// Invalidate drops the cached ledgers of the given loans.
func (c *LedgerCache) Invalidate(ctx context.Context, loanIDs ...uuid.UUID) error {
	if c == nil || c.client == nil || len(loanIDs) == 0 {
		return nil
	}
	keys := make([]string, len(loanIDs))
	for i, id := range loanIDs {
		keys[i] = ledgerKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.WrapCacheError(err)
	}
	return nil
}
