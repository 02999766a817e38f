// Package members provides database operations for registered readers.
//
// # Interface Implementation
//
//	var _ ledger.ReaderStore = (*Repository)(nil)
//	var _ http.MemberStore = (*Repository)(nil)
//
// # Usage
//
//	repo := members.NewRepository(db.DB)
//	reader, err := repo.GetReader(ctx, 7)
package members

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/database"
	"github.com/mrlokans/circulation/internal/entities"
)

// Repository handles all reader database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateReader registers a new reader under a caller-assigned id.
func (r *Repository) CreateReader(ctx context.Context, reader *entities.Reader) error {
	if reader.ID <= 0 {
		return fmt.Errorf("reader id %d: %w", reader.ID, entities.ErrInvalidID)
	}
	reader.Normalize()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Reader{}).Where("reader_id = ?", reader.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("reader %d: %w", reader.ID, entities.ErrDuplicateKey)
		}
		return tx.Create(reader).Error
	})
	return database.Classify("create reader", err, entities.ErrReaderNotFound)
}

// UpdateReader overwrites name, phone and gender of an existing reader.
func (r *Repository) UpdateReader(ctx context.Context, reader *entities.Reader) error {
	if reader.ID <= 0 {
		return fmt.Errorf("reader id %d: %w", reader.ID, entities.ErrInvalidID)
	}
	reader.Normalize()

	result := r.db.WithContext(ctx).Model(&entities.Reader{}).
		Where("reader_id = ?", reader.ID).
		Updates(map[string]any{
			"name":   reader.Name,
			"phone":  reader.Phone,
			"gender": reader.Gender,
		})
	if result.Error != nil {
		return database.StorageError("update reader", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reader %d: %w", reader.ID, entities.ErrReaderNotFound)
	}
	return nil
}

// DeleteReader removes a reader. With DeleteRejectIfReferenced the call
// fails with ErrInvariantViolation while the reader holds active loans.
func (r *Repository) DeleteReader(ctx context.Context, id entities.ID, policy entities.DeletePolicy) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reader entities.Reader
		if err := tx.Where("reader_id = ?", id).First(&reader).Error; err != nil {
			return err
		}

		if policy != entities.DeleteForce {
			var active int64
			err := tx.Model(&entities.Loan{}).
				Where("reader_id = ? AND return_date IS NULL", id).
				Count(&active).Error
			if err != nil {
				return err
			}
			if active > 0 {
				return fmt.Errorf("reader %d has %d active loans: %w", id, active, entities.ErrInvariantViolation)
			}
		}

		return tx.Where("reader_id = ?", id).Delete(&entities.Reader{}).Error
	})
	return database.Classify("delete reader", err, fmt.Errorf("reader %d: %w", id, entities.ErrReaderNotFound))
}

// GetReader retrieves a reader by ID.
func (r *Repository) GetReader(ctx context.Context, id entities.ID) (*entities.Reader, error) {
	return r.FindReader(r.db.WithContext(ctx), id)
}

// FindReader reads a reader through the given handle, which may be a transaction.
func (r *Repository) FindReader(db *gorm.DB, id entities.ID) (*entities.Reader, error) {
	var reader entities.Reader
	err := db.Where("reader_id = ?", id).First(&reader).Error
	if err != nil {
		return nil, database.Classify("get reader", err, fmt.Errorf("reader %d: %w", id, entities.ErrReaderNotFound))
	}
	return &reader, nil
}

// ListReaders returns every reader ordered by id.
func (r *Repository) ListReaders(ctx context.Context) ([]entities.Reader, error) {
	var readers []entities.Reader
	if err := r.db.WithContext(ctx).Order("reader_id ASC").Find(&readers).Error; err != nil {
		return nil, database.StorageError("list readers", err)
	}
	return readers, nil
}
