package tonedeck

import "errors"

var (
	// ErrDecodeFailure is returned when an image cannot be turned into a
	// processable pixel buffer.
	ErrDecodeFailure = errors.New("image could not be decoded")

	// ErrMissingInput is returned when no target image was provided.
	ErrMissingInput = errors.New("no target image")

	// ErrFilterStage is returned when a filter stage produced no output.
	ErrFilterStage = errors.New("filter stage produced no output")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid matcher configuration")
)
