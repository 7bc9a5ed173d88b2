package report

import "errors"

var (
	// ErrEmptyCompletion is returned when the summarization service
	// answered with no usable text. An empty summary is never stored.
	ErrEmptyCompletion = errors.New("report: summarization service returned empty response")

	// ErrMalformedCompletion is returned when the response text cannot be
	// parsed into the headline/location/body shape.
	ErrMalformedCompletion = errors.New("report: summarization response is malformed")
)
