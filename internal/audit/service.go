package audit

import (
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mrlokans/circulation/internal/database/audit"
	"github.com/mrlokans/circulation/internal/entities"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued by LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogCheckout records the outcome of a checkout attempt.
func (s *Service) LogCheckout(bookID, readerID entities.ID, loan *entities.Loan, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCheckout,
		Action:      "book_checkout",
		Description: fmt.Sprintf("Book %d to reader %d", bookID, readerID),
		EntityType:  "loan",
		Status:      entities.AuditStatusSuccess,
	}
	metadata := map[string]any{
		"book_id":   bookID,
		"reader_id": readerID,
	}
	if loan != nil {
		event.EntityID = &loan.ID
		metadata["due_date"] = loan.DueDate.String()
	}
	event.Metadata = encodeMetadata(metadata)
	markFailed(event, err)

	s.LogAsync(event)
}

// LogCheckIn records the outcome of a return.
func (s *Service) LogCheckIn(borrowID entities.ID, loan *entities.Loan, err error) {
	id := borrowID
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCheckIn,
		Action:      "book_checkin",
		Description: fmt.Sprintf("Loan %d returned", borrowID),
		EntityType:  "loan",
		EntityID:    &id,
		Status:      entities.AuditStatusSuccess,
	}
	if loan != nil && loan.ReturnDate != nil {
		event.Metadata = encodeMetadata(map[string]any{
			"book_id":     loan.BookID,
			"return_date": loan.ReturnDate.String(),
		})
	}
	markFailed(event, err)

	s.LogAsync(event)
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(entityType string, entityID entities.ID, policy entities.DeletePolicy, err error) {
	action := entityType + "_delete"
	if policy == entities.DeleteForce {
		action = entityType + "_delete_forced"
	}

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      action,
		Description: fmt.Sprintf("Deleted %s %d", entityType, entityID),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)

	s.LogAsync(event)
}

// LogTransfer records a bulk import or export run.
func (s *Service) LogTransfer(correlationID, action, description string, counts map[string]int, err error) {
	event := &entities.AuditEvent{
		EventType:     entities.AuditEventTransfer,
		Action:        action,
		Description:   description,
		CorrelationID: correlationID,
		Status:        entities.AuditStatusSuccess,
	}
	if len(counts) > 0 {
		event.Metadata = encodeMetadata(counts)
	}
	markFailed(event, err)

	s.LogAsync(event)
}

// LogOverdueReport records a generated overdue report.
func (s *Service) LogOverdueReport(asOf entities.Date, count int, snapshot string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventOverdueReport,
		Action:      "overdue_report",
		Description: fmt.Sprintf("%d overdue loans as of %s", count, asOf),
		Status:      entities.AuditStatusSuccess,
		Metadata: encodeMetadata(map[string]any{
			"as_of":    asOf.String(),
			"count":    count,
			"snapshot": snapshot,
		}),
	}
	markFailed(event, err)

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(eventType, limit, offset)
}

// GetEventsByCorrelation returns the events of one import or export run.
func (s *Service) GetEventsByCorrelation(correlationID string) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsByCorrelation(correlationID)
}

// DeleteOldEvents removes events with the given status older than the
// specified duration. An empty status matches every event.
func (s *Service) DeleteOldEvents(retention time.Duration, status entities.AuditStatus) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff, status)
}

func markFailed(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func encodeMetadata(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
