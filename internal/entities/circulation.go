package entities

import "strings"

type Book struct {
	ID       ID     `gorm:"column:book_id;primaryKey;autoIncrement:false" json:"book_id"`
	Title    string `gorm:"not null;size:512;index" json:"title"`
	Author   string `gorm:"not null;size:256;index" json:"author"`
	Category string `gorm:"not null;size:128;index" json:"category"`
	Stock    int    `gorm:"not null;default:0;check:chk_books_stock,stock >= 0" json:"stock"`
}

func (Book) TableName() string {
	return "books"
}

// BookSummary is the part of a book shown next to a loan.
type BookSummary struct {
	ID     ID     `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (b Book) Summary() BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, Author: b.Author}
}

// GenderUnknown is stored when a reader is registered without a gender.
const GenderUnknown = "unknown"

type Reader struct {
	ID     ID     `gorm:"column:reader_id;primaryKey;autoIncrement:false" json:"reader_id"`
	Name   string `gorm:"not null;size:256;index" json:"name"`
	Phone  string `gorm:"not null;size:64" json:"phone"`
	Gender string `gorm:"not null;size:32;default:'unknown'" json:"gender"`
}

func (Reader) TableName() string {
	return "readers"
}

// Normalize fills defaults and trims user input.
func (r *Reader) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Gender = strings.TrimSpace(r.Gender)
	if r.Gender == "" {
		r.Gender = GenderUnknown
	}
}

// ReaderSummary is the part of a reader shown next to a loan.
type ReaderSummary struct {
	ID    ID     `json:"reader_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (r Reader) Summary() ReaderSummary {
	return ReaderSummary{ID: r.ID, Name: r.Name, Phone: r.Phone}
}

// Loan is a single lending transaction. A nil ReturnDate means the loan is
// active; once set it never changes again.
type Loan struct {
	ID         ID    `gorm:"column:borrow_id;primaryKey;autoIncrement" json:"borrow_id"`
	BookID     ID    `gorm:"column:book_id;not null;index" json:"book_id"`
	ReaderID   ID    `gorm:"column:reader_id;not null;index" json:"reader_id"`
	BorrowDate Date  `gorm:"column:borrow_date;type:text;not null" json:"borrow_date"`
	DueDate    Date  `gorm:"column:due_date;type:text;not null;index" json:"due_date"`
	ReturnDate *Date `gorm:"column:return_date;type:text;index" json:"return_date"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// IsOverdue reports whether the loan is active and its due date is strictly
// before asOf.
func (l Loan) IsOverdue(asOf Date) bool {
	return l.IsActive() && l.DueDate.Before(asOf)
}

// DeletePolicy decides whether catalog and member records referenced by
// active loans may be removed.
type DeletePolicy string

const (
	DeleteRejectIfReferenced DeletePolicy = "reject_if_referenced"
	DeleteForce              DeletePolicy = "force"
)

// ParseDeletePolicy falls back to DeleteRejectIfReferenced for unknown values.
func ParseDeletePolicy(s string) DeletePolicy {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case DeleteForce:
		return DeleteForce
	default:
		return DeleteRejectIfReferenced
	}
}
