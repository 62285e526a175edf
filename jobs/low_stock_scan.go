package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/kgomo-bms/kgomo-bms/internal/inventory"
)

// LowStockScanJob checks product stock levels and emails a summary
// when anything has fallen to or below the threshold.
type LowStockScanJob struct {
	Inventory *inventory.Service
	Client    *Client
	Logger    *slog.Logger
	Threshold int
	NotifyTo  string
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(inv *inventory.Service, client *Client, logger *slog.Logger, threshold int, notifyTo string) *LowStockScanJob {
	return &LowStockScanJob{Inventory: inv, Client: client, Logger: logger, Threshold: threshold, NotifyTo: notifyTo}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.Threshold
	}
	notifyTo := payload.NotifyTo
	if notifyTo == "" {
		notifyTo = j.NotifyTo
	}

	logger := j.logger().With(slog.Int("threshold", threshold))
	products, err := j.Inventory.LowStock(ctx, threshold, 50)
	if err != nil {
		logger.Error("load low stock products", slog.Any("error", err))
		return err
	}
	if len(products) == 0 {
		logger.Info("stock levels healthy")
		return nil
	}

	logger.Info("low stock detected", slog.Int("products", len(products)))
	if j.Client == nil || notifyTo == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d product(s) at or below %d in stock:\n\n", len(products), threshold)
	for _, p := range products {
		fmt.Fprintf(&b, "  %s — %d left\n", p.DisplayName(), p.Stock)
	}
	_, err = j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      notifyTo,
		Subject: "Kgomo BMS: low stock alert",
		Body:    b.String(),
	})
	if err != nil {
		logger.Error("enqueue low stock email", slog.Any("error", err))
	}
	return err
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeLowStockScan))
}
