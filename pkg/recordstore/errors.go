package recordstore

import "errors"

var (
	// ErrStoreUnavailable reports that the underlying database could not be opened
	// or prepared (permissions, missing directory, disabled storage, full disk).
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrDuplicateKey is returned by Add when the primary key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned by Replace when no record has the given id.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCollection is returned by writes against an undeclared collection.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnknownIndex is returned when an index is not declared on the collection.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrInvalidRecord is returned when a record has an empty primary key.
	ErrInvalidRecord = errors.New("invalid record")
)
