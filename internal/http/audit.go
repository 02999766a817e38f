package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/entities"
)

type AuditController struct {
	auditService AuditReader
}

func NewAuditController(auditService AuditReader) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns paginated audit events, newest first.
// GET /api/audit?type=checkout&limit=25&offset=0
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c, 25, 100)
	eventType := entities.AuditEventType(c.Query("type"))

	events, total, err := ac.auditService.GetEvents(eventType, limit, offset)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages,
	})
}

type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// GetEventTypes lists the filters accepted by GetAuditEvents.
// GET /api/audit/types
func (ac *AuditController) GetEventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"event_types": []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventCheckout), Label: "Checkout"},
		{Value: string(entities.AuditEventCheckIn), Label: "Check-in"},
		{Value: string(entities.AuditEventDelete), Label: "Delete"},
		{Value: string(entities.AuditEventTransfer), Label: "Import / Export"},
		{Value: string(entities.AuditEventOverdueReport), Label: "Overdue Report"},
	}})
}

// GetRun returns every event written by one import or export run.
// GET /api/audit/runs/:correlation_id
func (ac *AuditController) GetRun(c *gin.Context) {
	correlationID := c.Param("correlation_id")

	events, err := ac.auditService.GetEventsByCorrelation(correlationID)
	if err != nil {
		respondInternalError(c, err, "load audit run")
		return
	}
	if len(events) == 0 {
		respondNotFound(c, "run")
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlation_id": correlationID, "events": events})
}
