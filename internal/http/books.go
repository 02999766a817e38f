package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/circulation/internal/database/catalog"
	"github.com/mrlokans/circulation/internal/entities"
)

type BooksController struct {
	store         CatalogStore
	deletePolicy  entities.DeletePolicy
	auditRecorder DeleteRecorder
}

func NewBooksController(store CatalogStore, deletePolicy entities.DeletePolicy, recorder DeleteRecorder) *BooksController {
	return &BooksController{
		store:         store,
		deletePolicy:  deletePolicy,
		auditRecorder: recorder,
	}
}

// BookRequest is the body of create and update calls. The id comes from
// the body on create and from the path on update.
type BookRequest struct {
	ID       entities.ID `json:"book_id"`
	Title    string      `json:"title" binding:"required"`
	Author   string      `json:"author"`
	Category string      `json:"category"`
	Stock    *int        `json:"stock" binding:"required"`
}

func (r BookRequest) book(id entities.ID) *entities.Book {
	return &entities.Book{
		ID:       id,
		Title:    r.Title,
		Author:   r.Author,
		Category: r.Category,
		Stock:    *r.Stock,
	}
}

// ListBooks returns the catalog, optionally filtered.
// GET /api/books?q=keyword&field=all|title|author|category
func (bc *BooksController) ListBooks(c *gin.Context) {
	var (
		books []entities.Book
		err   error
	)
	if keyword := c.Query("q"); keyword != "" {
		books, err = bc.store.SearchBooks(c.Request.Context(), keyword, catalog.ParseSearchField(c.Query("field")))
	} else {
		books, err = bc.store.ListBooks(c.Request.Context())
	}
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"total": len(books),
	})
}

// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBook(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book := req.book(req.ID)
	if err := bc.store.CreateBook(c.Request.Context(), book); err != nil {
		respondDomainError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book := req.book(id)
	if err := bc.store.UpdateBook(c.Request.Context(), book); err != nil {
		respondDomainError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book. Books with active loans are rejected unless
// the policy is force.
// DELETE /api/books/:id?policy=reject_if_referenced|force
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	policy := parseDeletePolicy(c, bc.deletePolicy)
	err := bc.store.DeleteBook(c.Request.Context(), id, policy)
	if bc.auditRecorder != nil {
		bc.auditRecorder.LogDelete("book", id, policy, err)
	}
	if err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	respondSuccess(c, "Book deleted")
}
