package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/entities"
	"github.com/mrlokans/circulation/internal/ledger"
	"github.com/mrlokans/circulation/internal/overdue"
)

type LoansController struct {
	ledger  LoanService
	overdue OverdueLister
}

func NewLoansController(ledger LoanService, overdue OverdueLister) *LoansController {
	return &LoansController{ledger: ledger, overdue: overdue}
}

type ReturnRequest struct {
	ReturnDate entities.Date `json:"return_date"`
}

// GET /api/loans
func (lc *LoansController) ListLoans(c *gin.Context) {
	loans, err := lc.ledger.GetAllLoans(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "total": len(loans)})
}

// GET /api/loans/active
func (lc *LoansController) ListActiveLoans(c *gin.Context) {
	loans, err := lc.ledger.GetActiveLoans(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list active loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "total": len(loans)})
}

// GET /api/loans/:id
func (lc *LoansController) GetLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.ledger.GetLoan(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// Checkout lends a copy. Omitted dates default to today and the configured
// loan period.
// POST /api/loans
func (lc *LoansController) Checkout(c *gin.Context) {
	var req ledger.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.BookID <= 0 || req.ReaderID <= 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "book_id and reader_id are required")
		return
	}

	loan, err := lc.ledger.Checkout(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "checkout")
		return
	}
	respondCreated(c, loan)
}

// CheckIn closes an active loan. An empty body returns the book today.
// POST /api/loans/:id/return
func (lc *LoansController) CheckIn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReturnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	loan, err := lc.ledger.CheckIn(c.Request.Context(), id, req.ReturnDate)
	if err != nil {
		respondDomainError(c, err, "checkin")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ListOverdue returns active loans whose due date is before as_of (today
// when omitted), oldest due date first.
// GET /api/loans/overdue?as_of=YYYY-MM-DD
func (lc *LoansController) ListOverdue(c *gin.Context) {
	asOf, ok := parseDateQuery(c, "as_of")
	if !ok {
		return
	}
	if asOf.IsZero() {
		asOf = entities.Today()
	}

	entries, err := overdue.Collect(lc.overdue.ListOverdue(c.Request.Context(), asOf))
	if err != nil {
		respondInternalError(c, err, "list overdue")
		return
	}
	if entries == nil {
		entries = []overdue.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"as_of":   asOf,
		"overdue": entries,
		"total":   len(entries),
	})
}
