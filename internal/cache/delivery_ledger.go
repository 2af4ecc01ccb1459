package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

const sentPrefix = "sla:report:sent"

// DeliveryLedger records which tenant windows the scheduler already sent, so
// restarts and parallel replicas do not mail the same week twice.
type DeliveryLedger interface {
	// Claim reserves the window for this process; false means another run owns it.
	Claim(ctx context.Context, tenantID string, window domain.ReportWindow) (bool, error)
	// Release frees a claim after a failed delivery so a later run can retry.
	Release(ctx context.Context, tenantID string, window domain.ReportWindow) error
}

type redisDeliveryLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeliveryLedger returns a SETNX-based ledger. A nil client disables
// deduplication: every claim succeeds.
func NewRedisDeliveryLedger(client *redis.Client, ttl time.Duration) DeliveryLedger {
	if client == nil {
		return noopLedger{}
	}
	return &redisDeliveryLedger{client: client, ttl: ttl}
}

// SentKey returns the ledger key for a tenant window.
func SentKey(tenantID string, window domain.ReportWindow) string {
	return fmt.Sprintf("%s:%s:%d", sentPrefix, tenantID, window.End.Unix())
}

func (l *redisDeliveryLedger) Claim(ctx context.Context, tenantID string, window domain.ReportWindow) (bool, error) {
	return l.client.SetNX(ctx, SentKey(tenantID, window), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *redisDeliveryLedger) Release(ctx context.Context, tenantID string, window domain.ReportWindow) error {
	return l.client.Del(ctx, SentKey(tenantID, window)).Err()
}

type noopLedger struct{}

func (noopLedger) Claim(context.Context, string, domain.ReportWindow) (bool, error) { return true, nil }

func (noopLedger) Release(context.Context, string, domain.ReportWindow) error { return nil }
