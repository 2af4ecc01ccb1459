// Package cache stores computed compliance reports in Redis for dashboard reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

const keyPrefix = "sla:report"

// ReportCache reads and writes compliance reports keyed by tenant and window.
type ReportCache interface {
	Get(ctx context.Context, tenantID string, window domain.ReportWindow) (*domain.ComplianceReport, bool, error)
	Set(ctx context.Context, tenantID string, window domain.ReportWindow, report domain.ComplianceReport) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache returns a Redis-backed cache. A nil client or zero ttl
// disables caching.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if client == nil || ttl <= 0 {
		return noopCache{}
	}
	return &redisReportCache{client: client, ttl: ttl}
}

// Key returns the Redis key for a tenant window.
func Key(tenantID string, window domain.ReportWindow) string {
	return fmt.Sprintf("%s:%s:%d:%d", keyPrefix, tenantID, window.Start.Unix(), window.End.Unix())
}

func (c *redisReportCache) Get(ctx context.Context, tenantID string, window domain.ReportWindow) (*domain.ComplianceReport, bool, error) {
	raw, err := c.client.Get(ctx, Key(tenantID, window)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var report domain.ComplianceReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, tenantID string, window domain.ReportWindow, report domain.ComplianceReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return c.client.Set(ctx, Key(tenantID, window), raw, c.ttl).Err()
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, domain.ReportWindow) (*domain.ComplianceReport, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(context.Context, string, domain.ReportWindow, domain.ComplianceReport) error {
	return nil
}
