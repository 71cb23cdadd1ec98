package audit

import "errors"

var (
	// ErrEventValidation indicates the event lacks required fields.
	ErrEventValidation = errors.New("audit.errors.event_validation_failed")

	// ErrStorageNotAvailable indicates the storage backend is unavailable.
	ErrStorageNotAvailable = errors.New("audit.errors.storage_not_available")
)
