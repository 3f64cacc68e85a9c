package domain

import "errors"

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a resource conflict (e.g. duplicate task name)
	ErrConflict = errors.New("conflict")

	// ErrFetch indicates a transport/timeout/non-2xx failure talking to the guide site
	ErrFetch = errors.New("guide fetch failed")

	// ErrUnmappedChannel indicates a timer was requested for a channel the
	// appliance mapping doesn't know
	ErrUnmappedChannel = errors.New("channel not mapped")

	// ErrApplianceRejected indicates the appliance answered 200 but signalled
	// failure in its response body
	ErrApplianceRejected = errors.New("appliance rejected timer")

	// ErrApplianceUnreachable indicates a transport/timeout failure talking to
	// the appliance
	ErrApplianceUnreachable = errors.New("appliance unreachable")
)
