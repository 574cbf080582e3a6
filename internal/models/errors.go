package models

import "errors"

// Error taxonomy of the ingestion pipeline. Fatal errors bubble to the
// orchestrator, which records an error artifact before returning them to
// the transport layer.
var (
	// ErrUnsupportedAction means the classifier produced no usable action.
	ErrUnsupportedAction = errors.New("unsupported webhook action")

	// ErrMissingSubstructure means a required nested payload section was
	// absent under every key-casing variant.
	ErrMissingSubstructure = errors.New("required payload substructure missing")

	// ErrValidation means an entity field failed validation (e.g. tag color).
	ErrValidation = errors.New("validation failed")

	// ErrTicketNotFound means a status change referenced an unknown ticket.
	ErrTicketNotFound = errors.New("ticket not found")
)
