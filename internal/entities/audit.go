package entities

import "time"

type AuditEventType string

const (
	AuditEventCheckout      AuditEventType = "checkout"
	AuditEventCheckIn       AuditEventType = "checkin"
	AuditEventDelete        AuditEventType = "delete"
	AuditEventTransfer      AuditEventType = "transfer"
	AuditEventOverdueReport AuditEventType = "overdue_report"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	EventType     AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action        string         `gorm:"size:100" json:"action"`      // e.g., "books_import", "reader_delete"
	Description   string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType    string         `gorm:"size:50" json:"entity_type"`  // "book", "reader", "loan"
	EntityID      *ID            `gorm:"index" json:"entity_id,omitempty"`
	CorrelationID string         `gorm:"size:36;index" json:"correlation_id,omitempty"`
	Metadata      string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status        AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg      string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
