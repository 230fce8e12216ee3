package patient

import (
	"errors"

	"github.com/ehr/patients/internal/platform/validation"
)

var (
	// ErrNotFound is returned for an id that is not in the document.
	ErrNotFound = errors.New("patient not found")

	// ErrConflict is returned when creating an id that already exists.
	ErrConflict = errors.New("patient already exists")

	// ErrStorageUnavailable is returned when the document cannot be read,
	// parsed or written.
	ErrStorageUnavailable = errors.New("patient storage unavailable")

	// ErrInvalidInput is returned by the derived field calculator for
	// records that never went through the schema.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSort is returned for an unknown sort field or order.
	ErrInvalidSort = errors.New("invalid sort")
)

// ValidationError lists every field constraint a record violates.
type ValidationError = validation.Error
