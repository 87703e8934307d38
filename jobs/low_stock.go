package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// TaskTypeLowStockScan triggers the periodic low-stock sweep.
	TaskTypeLowStockScan = "stock:lowscan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Threshold    int       `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock sweep.
func NewLowStockScanTask(at time.Time, threshold int) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at, Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanJob walks the catalog and raises LOW_STOCK notifications for
// active products whose sellable quantity dropped to the threshold or below.
type LowStockScanJob struct {
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Threshold int
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, threshold int) *LowStockScanJob {
	return &LowStockScanJob{Pool: pool, Logger: logger, Threshold: threshold}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.Threshold
	}
	if threshold <= 0 {
		threshold = 5
	}

	logger := j.logger().With(slog.Int("threshold", threshold))
	logger.Info("starting low stock scan")

	rows, err := j.Pool.Query(ctx, `
SELECT id, name, sku, available FROM (
  SELECT p.id, p.name, p.sku,
         CASE WHEN p.has_variants
              THEN COALESCE((SELECT SUM(v.stock) FROM product_variants v WHERE v.product_id = p.id), 0)
              ELSE p.stock
         END AS available
  FROM products p
  WHERE p.is_active
) s
WHERE s.available <= $1
ORDER BY s.available, s.name`, threshold)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	type hit struct {
		id, name, sku string
		available     int
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.name, &h.sku, &h.available); err != nil {
			return err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	raised := 0
	for _, h := range hits {
		link := "/admin/products/" + h.id
		message := h.name + " (" + h.sku + ") is low on stock"
		tag, err := j.Pool.Exec(ctx, `
INSERT INTO notifications (id, type, message, link, is_read, created_at)
SELECT $1, 'LOW_STOCK', $2, $3, FALSE, NOW()
WHERE NOT EXISTS (
  SELECT 1 FROM notifications
  WHERE type = 'LOW_STOCK' AND link = $3 AND created_at > NOW() - INTERVAL '24 hours'
)`, uuid.NewString(), message, link)
		if err != nil {
			return err
		}
		raised += int(tag.RowsAffected())
	}

	logger.Info("completed low stock scan",
		slog.Int("products", len(hits)),
		slog.Int("notifications", raised),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeLowStockScan))
}
