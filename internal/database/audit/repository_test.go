package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/circulation/internal/database/dbtest"
	"github.com/mrlokans/circulation/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	return NewRepository(dbtest.Open(t).DB)
}

func TestRepository_LogEvent(t *testing.T) {
	repo := setupTestRepo(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCheckout,
		Action:      "book_checkout",
		Description: "Book 1 lent to reader 2",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := setupTestRepo(t)

	for i := 0; i < 15; i++ {
		event := &entities.AuditEvent{
			EventType:   entities.AuditEventCheckout,
			Action:      "book_checkout",
			Description: "Test event",
			Status:      entities.AuditStatusSuccess,
			CreatedAt:   time.Now().Add(time.Duration(-i) * time.Hour),
		}
		require.NoError(t, repo.LogEvent(event))
	}
	for i := 0; i < 5; i++ {
		event := &entities.AuditEvent{
			EventType: entities.AuditEventDelete,
			Action:    "book_delete",
			Status:    entities.AuditStatusSuccess,
		}
		require.NoError(t, repo.LogEvent(event))
	}

	t.Run("get all events", func(t *testing.T) {
		events, total, err := repo.GetEvents("", 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)
		assert.Len(t, events, 20)
	})

	t.Run("filter by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(entities.AuditEventCheckout, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		for _, e := range events {
			assert.Equal(t, entities.AuditEventCheckout, e.EventType)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(entities.AuditEventCheckout, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 5)

		events2, _, err := repo.GetEvents(entities.AuditEventCheckout, 5, 5)
		require.NoError(t, err)
		assert.Len(t, events2, 5)
		assert.NotEqual(t, events[0].ID, events2[0].ID)
	})

	t.Run("order by created_at desc", func(t *testing.T) {
		events, _, err := repo.GetEvents(entities.AuditEventCheckout, 10, 0)
		require.NoError(t, err)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i-1].CreatedAt.Before(events[i].CreatedAt))
		}
	})
}

func TestRepository_GetEventsByCorrelation(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventTransfer, Action: "books_import", CorrelationID: "run-1"}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventTransfer, Action: "readers_import", CorrelationID: "run-2"}))

	events, err := repo.GetEventsByCorrelation("run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "books_import", events[0].Action)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := setupTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventCheckIn,
		Action:    "old_checkin",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventCheckIn,
		Action:    "new_checkin",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	deleted, err := repo.DeleteOldEvents(now.Add(-24*time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.GetEvents("", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new_checkin", events[0].Action)
}

func TestRepository_DeleteOldEventsByStatus(t *testing.T) {
	repo := setupTestRepo(t)
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventCheckout,
		Action:    "checkout",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: old,
	}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventCheckout,
		Action:    "checkout_rejected",
		Status:    entities.AuditStatusFailed,
		ErrorMsg:  "out of stock",
		CreatedAt: old,
	}))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24*time.Hour), entities.AuditStatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.GetEvents("", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
}
