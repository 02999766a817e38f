package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/circulation/internal/entities"
)

const (
	// DefaultAuditRetentionDays applies to successful events when a cleanup
	// task carries no retention.
	DefaultAuditRetentionDays = 90
	// DefaultFailedAuditRetentionDays applies to failed events: rejected
	// checkouts and check-ins, failed deletes and transfer errors.
	DefaultFailedAuditRetentionDays = 365
)

// AuditEventCleaner is satisfied by audit.Service. An empty status matches
// every event.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration, status entities.AuditStatus) (int64, error)
}

// CleanupAuditEventsTask prunes the audit trail. Failed events are kept for
// FailedRetentionDays, which is never shorter than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays       int `json:"retention_days"`
	FailedRetentionDays int `json:"failed_retention_days,omitempty"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// retention resolves the two windows in days.
func (t CleanupAuditEventsTask) retention() (success, failed int) {
	success = t.RetentionDays
	if success <= 0 {
		success = DefaultAuditRetentionDays
	}
	failed = t.FailedRetentionDays
	if failed <= 0 {
		failed = DefaultFailedAuditRetentionDays
	}
	return success, max(failed, success)
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}

		successDays, failedDays := task.retention()

		succeeded, err := cleaner.DeleteOldEvents(days(successDays), entities.AuditStatusSuccess)
		if err != nil {
			return fmt.Errorf("cleanup successful audit events: %w", err)
		}
		failed, err := cleaner.DeleteOldEvents(days(failedDays), entities.AuditStatusFailed)
		if err != nil {
			return fmt.Errorf("cleanup failed audit events: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d successful audit events older than %d days and %d failed ones older than %d days",
			succeeded, successDays, failed, failedDays)
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
