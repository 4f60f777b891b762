package reactgrid

import "errors"

var (
	// ErrNoRecords is returned by New when the configuration has no records source.
	ErrNoRecords = errors.New("no records configuration found for the grid")

	// ErrInvalidRecords is returned when the records source is neither a
	// sequence nor a loader.
	ErrInvalidRecords = errors.New("invalid records settings")

	// ErrInvalidDefinition is returned for grid definitions that fail
	// validation or cannot be turned into a Config.
	ErrInvalidDefinition = errors.New("invalid grid definition")

	// ErrUnknownFilter is returned when setting a filter name the grid does not define.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownGrid is returned when looking up a grid id that was never registered.
	ErrUnknownGrid = errors.New("unknown grid")
)
