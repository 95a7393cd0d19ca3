package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"duoadmin/domain/audit"
	"duoadmin/infrastructure/persistence/mysql/po"
	"duoadmin/infrastructure/persistence/retry"
)

// AuditRepository stores audit entries in MySQL.
type AuditRepository struct {
	db    *gorm.DB
	retry retry.Config
}

func NewAuditRepository(db *gorm.DB, rc retry.Config) *AuditRepository {
	return &AuditRepository{db: db, retry: rc}
}

func (r *AuditRepository) getDB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// AutoMigrate creates or updates the audit table.
func (r *AuditRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&po.AuditEntryPO{})
}

func (r *AuditRepository) Save(ctx context.Context, e audit.Entry) error {
	entryPO, err := po.FromAuditDomain(e)
	if err != nil {
		return err
	}
	return retry.ExecuteWithRetry(ctx, r.retry, func(ctx context.Context) error {
		return r.getDB(ctx).Create(entryPO).Error
	})
}

func (r *AuditRepository) Recent(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}

	db := r.getDB(ctx).Model(&po.AuditEntryPO{})
	if q.Entity != "" {
		db = db.Where("entity = ?", string(q.Entity))
	}
	if q.TargetID != "" {
		db = db.Where("target_id = ?", q.TargetID)
	}

	var rows []po.AuditEntryPO
	if err := db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]audit.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Prune deletes at most batch entries created before the cutoff, oldest
// first, and returns how many were removed.
func (r *AuditRepository) Prune(ctx context.Context, before time.Time, batch int) (int64, error) {
	var deleted int64
	err := retry.ExecuteWithRetry(ctx, r.retry, func(ctx context.Context) error {
		res := r.getDB(ctx).
			Where("created_at < ?", before).
			Order("created_at ASC").
			Limit(batch).
			Delete(&po.AuditEntryPO{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
