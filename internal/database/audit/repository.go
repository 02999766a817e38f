package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Status == "" {
		event.Status = entities.AuditStatusSuccess
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated audit events, most recent first. An empty
// eventType returns every type.
func (r *Repository) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := r.db.Model(&entities.AuditEvent{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsByCorrelation returns every event written by one bulk run.
func (r *Repository) GetEventsByCorrelation(correlationID string) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.Where("correlation_id = ?", correlationID).Order("id ASC").Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time,
// limited to one status unless status is empty. Returns the number of
// deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time, status entities.AuditStatus) (int64, error) {
	query := r.db.Where("created_at < ?", olderThan)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	result := query.Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
