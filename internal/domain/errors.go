package domain

import "errors"

// Sentinel errors for entry storage and input handling
var (
	// ErrStorageUnavailable indicates the host cannot provide persistent storage
	ErrStorageUnavailable = errors.New("persistent storage unavailable")

	// ErrStorage indicates a storage transaction failed
	ErrStorage = errors.New("storage transaction failed")

	// ErrDuplicateKey indicates an entry with the same id already exists
	ErrDuplicateKey = errors.New("entry id already exists")

	// ErrMalformedLegacyData indicates the legacy flat list could not be parsed
	ErrMalformedLegacyData = errors.New("malformed legacy data")

	// ErrValidation indicates rejected user input
	ErrValidation = errors.New("invalid entry")

	// ErrEntryNotFound indicates the requested entry does not exist
	ErrEntryNotFound = errors.New("entry not found")
)
