package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/entities"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeNotFound            = "not_found"
	CodeDuplicateKey        = "duplicate_key"
	CodeInvalidDateRange    = "invalid_date_range"
	CodeOutOfStock          = "out_of_stock"
	CodeInvariantViolation  = "invariant_violation"
	CodeInvalidID           = "invalid_id"
	CodeStorageFailure      = "storage_failure"
	CodeInvalidRequestInput = "invalid_request"
)

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeInvalidRequestInput})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeStorageFailure})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps a store or ledger error onto a status code.
// Anything that is not a known rejection is treated as an internal error.
func respondDomainError(c *gin.Context, err error, context string) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, context)
		return
	}
	respondError(c, status, code, err.Error())
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrStorageFailure):
		return http.StatusInternalServerError, CodeStorageFailure
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, entities.ErrDuplicateKey):
		return http.StatusConflict, CodeDuplicateKey
	case errors.Is(err, entities.ErrOutOfStock):
		return http.StatusConflict, CodeOutOfStock
	case errors.Is(err, entities.ErrInvariantViolation):
		return http.StatusConflict, CodeInvariantViolation
	case errors.Is(err, entities.ErrInvalidDateRange):
		return http.StatusBadRequest, CodeInvalidDateRange
	case errors.Is(err, entities.ErrInvalidID):
		return http.StatusBadRequest, CodeInvalidID
	default:
		return http.StatusInternalServerError, CodeStorageFailure
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an identifier from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (entities.ID, bool) {
	id, err := entities.ParseID(c.Param(paramName))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter. A missing
// parameter yields the zero Date.
func parseDateQuery(c *gin.Context, paramName string) (entities.Date, bool) {
	raw := c.Query(paramName)
	if raw == "" {
		return entities.Date{}, true
	}
	d, err := entities.ParseDate(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName+": expected YYYY-MM-DD")
		return entities.Date{}, false
	}
	return d, true
}

// parsePagination reads limit and offset, clamping limit to [1, maxLimit].
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseDeletePolicy(c *gin.Context, fallback entities.DeletePolicy) entities.DeletePolicy {
	if raw := c.Query("policy"); raw != "" {
		return entities.ParseDeletePolicy(raw)
	}
	if c.Query("force") == "true" {
		return entities.DeleteForce
	}
	return fallback
}
