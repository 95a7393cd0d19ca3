package po

import (
	"encoding/json"
	"time"

	"duoadmin/domain/action"
	"duoadmin/domain/audit"
	"duoadmin/domain/entity"
)

// AuditEntryPO Audit entry persistence object
// Note: Only used for database mapping, does not contain any business logic
type AuditEntryPO struct {
	ID        string    `gorm:"primaryKey;size:64"`
	RequestID string    `gorm:"size:64;index"`
	Actor     string    `gorm:"size:255;not null"`
	Entity    string    `gorm:"size:32;not null;index:idx_audit_target,priority:1"`
	Kind      string    `gorm:"size:32;not null"`
	TargetID  string    `gorm:"size:64;index:idx_audit_target,priority:2"`
	OK        bool      `gorm:"not null"`
	Partial   bool      `gorm:"not null;default:false"`
	Message   string    `gorm:"size:1024"`
	Steps     string    `gorm:"type:text"` // JSON array of step outcomes
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName Specify table name
func (AuditEntryPO) TableName() string {
	return "audit_entries"
}

// FromAuditDomain Convert domain entry to persistence object
func FromAuditDomain(e audit.Entry) (*AuditEntryPO, error) {
	steps, err := json.Marshal(e.Steps)
	if err != nil {
		return nil, err
	}
	return &AuditEntryPO{
		ID:        e.ID,
		RequestID: e.RequestID,
		Actor:     e.Actor,
		Entity:    string(e.Entity),
		Kind:      string(e.Kind),
		TargetID:  e.TargetID,
		OK:        e.OK,
		Partial:   e.Partial,
		Message:   e.Message,
		Steps:     string(steps),
		CreatedAt: e.CreatedAt,
	}, nil
}

// ToDomain Convert persistence object to domain entry. Unreadable step data
// yields an entry without steps.
func (p *AuditEntryPO) ToDomain() audit.Entry {
	var steps []action.StepOutcome
	if p.Steps != "" {
		_ = json.Unmarshal([]byte(p.Steps), &steps)
	}
	return audit.Entry{
		ID:        p.ID,
		RequestID: p.RequestID,
		Actor:     p.Actor,
		Entity:    entity.Entity(p.Entity),
		Kind:      action.Kind(p.Kind),
		TargetID:  p.TargetID,
		OK:        p.OK,
		Partial:   p.Partial,
		Message:   p.Message,
		Steps:     steps,
		CreatedAt: p.CreatedAt,
	}
}
