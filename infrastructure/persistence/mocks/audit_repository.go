package mocks

import (
	"context"
	"sort"
	"sync"

	"duoadmin/domain/audit"
)

// MockAuditRepository 审计日志仓储的内存实现
// 用于开发环境和测试，进程重启后数据丢失
type MockAuditRepository struct {
	entries []audit.Entry
	mu      sync.RWMutex
}

// NewMockAuditRepository 创建内存审计仓储
func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (r *MockAuditRepository) Save(ctx context.Context, e audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *MockAuditRepository) Recent(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}

	r.mu.RLock()
	matched := make([]audit.Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if q.Entity != "" && e.Entity != q.Entity {
			continue
		}
		if q.TargetID != "" && e.TargetID != q.TargetID {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	// 最新的在前；同一时刻按写入顺序倒序
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// All 返回全部记录（测试用）
func (r *MockAuditRepository) All() []audit.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]audit.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
