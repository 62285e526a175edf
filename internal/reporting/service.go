package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const cacheKey = "kgomo:dashboard:v1"

const (
	recentLimit  = 5
	lowStockRows = 5
	chartMonths  = 12
)

// Service assembles the dashboard, caching the result in Redis so the
// landing page stays cheap. Cache failures degrade to a direct build.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	redis     *redis.Client
	ttl       time.Duration
	threshold int
}

// NewService constructs a Service. threshold is the stock level at or
// below which a product counts as low stock.
func NewService(logger *slog.Logger, repo Repository, rdb *redis.Client, ttl time.Duration, threshold int) *Service {
	return &Service{logger: logger, repo: repo, redis: rdb, ttl: ttl, threshold: threshold}
}

// Dashboard returns the cached snapshot, building a fresh one on miss.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if cached, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var d Dashboard
		if err := json.Unmarshal(cached, &d); err == nil {
			return &d, nil
		}
		s.logger.Warn("dashboard cache corrupt, rebuilding")
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the snapshot and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context) (*Dashboard, error) {
	d, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(d); err == nil {
		if err := s.redis.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
			s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
		}
	}
	return d, nil
}

// Invalidate drops the cached snapshot so the next view rebuilds it.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, cacheKey).Err()
}

// build runs the dashboard queries concurrently; each lands in its own
// section so a pool connection serves each query independently.
func (s *Service) build(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Totals, err = s.repo.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.LowStock, err = s.repo.LowStock(gctx, s.threshold, lowStockRows)
		return err
	})
	g.Go(func() (err error) {
		d.RecentQuotations, err = s.repo.RecentQuotations(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentInvoices, err = s.repo.RecentInvoices(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentReceipts, err = s.repo.RecentReceipts(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.repo.RecentOrders(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlySales, err = s.repo.MonthlySales(gctx, chartMonths)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyPurchases, err = s.repo.MonthlyPurchases(gctx, chartMonths)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.GeneratedAt = time.Now()
	return &d, nil
}
