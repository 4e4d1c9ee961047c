package domain

import "errors"

var (
	// ErrStoreNotFound is returned when a store number has no planogram mapping
	ErrStoreNotFound = errors.New("store not found in planogram mapping")

	// ErrNoActiveStore is returned when an operation needs a selected store
	ErrNoActiveStore = errors.New("no store selected")

	// ErrBayNotFound is returned when a bay is not part of the active planogram
	ErrBayNotFound = errors.New("bay not found in planogram")

	// ErrPlacementNotFound is returned when a placement ID is not in the active planogram
	ErrPlacementNotFound = errors.New("placement not found")

	// ErrNoActiveMatch is returned when match navigation is requested without a match set
	ErrNoActiveMatch = errors.New("no active match")

	// ErrDuplicateScan is returned when the same scanner payload repeats inside the debounce window
	ErrDuplicateScan = errors.New("duplicate scan ignored")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrKeyNotFound is returned by a KeyValueStore for an absent key
	ErrKeyNotFound = errors.New("key not found")

	// ErrSourceNotFound is returned when a data source file does not exist
	ErrSourceNotFound = errors.New("data source not found")

	// ErrSourceFailure is returned when a data source cannot be read
	ErrSourceFailure = errors.New("data source request failed")
)
