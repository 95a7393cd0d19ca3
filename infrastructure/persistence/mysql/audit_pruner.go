package mysql

import (
	"context"
	"fmt"
	"time"

	"duoadmin/pkg/logger"

	"go.uber.org/zap"
)

// AuditPruner periodically removes audit entries older than the retention.
type AuditPruner struct {
	repository   *AuditRepository
	retention    time.Duration
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

func NewAuditPruner(
	repository *AuditRepository,
	retention time.Duration,
	pollInterval time.Duration,
	batchSize int,
) (*AuditPruner, error) {
	if repository == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}

	return &AuditPruner{
		repository:   repository,
		retention:    retention,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

func (w *AuditPruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.pruneOnce(ctx); err != nil {
				logger.Error("Audit pruning failed", zap.Error(err))
			}
		}
	}
}

// pruneOnce deletes batches until one comes back short.
func (w *AuditPruner) pruneOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)
	var total int64
	for {
		n, err := w.repository.Prune(ctx, cutoff, w.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < int64(w.batchSize) {
			break
		}
	}
	if total > 0 {
		logger.Info("Audit entries pruned",
			zap.Int64("deleted", total),
			zap.Time("cutoff", cutoff),
		)
	}
	return total, nil
}
