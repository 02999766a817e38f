package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/tasks"
)

// TaskQueue is satisfied by tasks.Client.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

type TasksController struct {
	client              TaskQueue
	retentionDays       int
	failedRetentionDays int
}

func NewTasksController(client TaskQueue, retentionDays, failedRetentionDays int) *TasksController {
	return &TasksController{client: client, retentionDays: retentionDays, failedRetentionDays: failedRetentionDays}
}

type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": []TaskTypeInfo{
			{
				Type:        tasks.OverdueReportTask{}.Config().Name,
				Description: "Write an overdue loan report snapshot (as_of defaults to today)",
			},
			{
				Type:        tasks.CleanupAuditEventsTask{}.Config().Name,
				Description: "Delete audit events older than the retention period; failed events are kept longer",
			},
		},
	})
}

// GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

type RunTaskRequest struct {
	AsOf                string `json:"as_of,omitempty"`
	RetentionDays       int    `json:"retention_days,omitempty"`
	FailedRetentionDays int    `json:"failed_retention_days,omitempty"`
}

// RunTask enqueues a task of the given type.
// POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case tasks.OverdueReportTask{}.Config().Name:
		if req.AsOf != "" {
			if _, err := entities.ParseDate(req.AsOf); err != nil {
				respondBadRequest(c, "invalid as_of: expected YYYY-MM-DD")
				return
			}
		}
		task = tasks.OverdueReportTask{AsOf: req.AsOf}

	case tasks.CleanupAuditEventsTask{}.Config().Name:
		days := req.RetentionDays
		if days <= 0 {
			days = tc.retentionDays
		}
		failedDays := req.FailedRetentionDays
		if failedDays <= 0 {
			failedDays = tc.failedRetentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days, FailedRetentionDays: failedDays}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.client.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
