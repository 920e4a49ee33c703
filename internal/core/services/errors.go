package services

import (
	"errors"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func isInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
