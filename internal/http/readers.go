package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/entities"
)

type ReadersController struct {
	store         MemberStore
	deletePolicy  entities.DeletePolicy
	auditRecorder DeleteRecorder
}

func NewReadersController(store MemberStore, deletePolicy entities.DeletePolicy, recorder DeleteRecorder) *ReadersController {
	return &ReadersController{
		store:         store,
		deletePolicy:  deletePolicy,
		auditRecorder: recorder,
	}
}

type ReaderRequest struct {
	ID     entities.ID `json:"reader_id"`
	Name   string      `json:"name" binding:"required"`
	Phone  string      `json:"phone"`
	Gender string      `json:"gender"`
}

func (r ReaderRequest) reader(id entities.ID) *entities.Reader {
	return &entities.Reader{ID: id, Name: r.Name, Phone: r.Phone, Gender: r.Gender}
}

// GET /api/readers
func (rc *ReadersController) ListReaders(c *gin.Context) {
	readers, err := rc.store.ListReaders(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list readers")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"readers": readers,
		"total":   len(readers),
	})
}

// GET /api/readers/:id
func (rc *ReadersController) GetReader(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reader, err := rc.store.GetReader(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get reader")
		return
	}
	c.JSON(http.StatusOK, reader)
}

// POST /api/readers
func (rc *ReadersController) CreateReader(c *gin.Context) {
	var req ReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	reader := req.reader(req.ID)
	if err := rc.store.CreateReader(c.Request.Context(), reader); err != nil {
		respondDomainError(c, err, "create reader")
		return
	}
	respondCreated(c, reader)
}

// PUT /api/readers/:id
func (rc *ReadersController) UpdateReader(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	reader := req.reader(id)
	if err := rc.store.UpdateReader(c.Request.Context(), reader); err != nil {
		respondDomainError(c, err, "update reader")
		return
	}
	c.JSON(http.StatusOK, reader)
}

// DELETE /api/readers/:id?policy=reject_if_referenced|force
func (rc *ReadersController) DeleteReader(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	policy := parseDeletePolicy(c, rc.deletePolicy)
	err := rc.store.DeleteReader(c.Request.Context(), id, policy)
	if rc.auditRecorder != nil {
		rc.auditRecorder.LogDelete("reader", id, policy, err)
	}
	if err != nil {
		respondDomainError(c, err, "delete reader")
		return
	}
	respondSuccess(c, "Reader deleted")
}
