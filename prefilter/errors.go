package prefilter

import "errors"

var (
	// ErrConfiguration is returned for an invalid resolution or sample count.
	ErrConfiguration = errors.New("invalid filter configuration")
	// ErrResourceAllocation is returned when a GPU object could not be created during construction.
	ErrResourceAllocation = errors.New("could not allocate filter resources")
	// ErrInvalidInput is returned by Update for a wrong number, format or size of faces.
	ErrInvalidInput = errors.New("invalid cubemap input")
	// ErrFatalGraphics is returned for an unexpected graphics API failure while filtering.
	// The filter has to be released after it.
	ErrFatalGraphics = errors.New("fatal graphics error")
)
