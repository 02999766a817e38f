package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/circulation/internal/entities"
)

// StorageError marks err as a persistence failure while keeping the cause
// reachable through errors.Is/As.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, entities.ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, entities.ErrStorageFailure, err)
}

// Classify maps gorm errors onto the domain taxonomy. notFound is returned
// for missing rows; anything unknown becomes a storage failure.
func Classify(op string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, entities.ErrDuplicateKey)
	case entities.IsDomainError(err):
		return err
	default:
		return StorageError(op, err)
	}
}
