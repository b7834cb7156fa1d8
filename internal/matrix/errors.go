package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation marks a payload whose overall structure is broken.
	// Such payloads are rejected as a whole; no partial table is produced.
	ErrContractViolation = errors.New("payload contract violation")

	// ErrIndexDataMismatch indicates index and data have different lengths
	ErrIndexDataMismatch = fmt.Errorf("%w: index and data lengths differ", ErrContractViolation)

	// ErrMalformedColumns indicates a column entry without a usable build id
	ErrMalformedColumns = fmt.Errorf("%w: malformed columns", ErrContractViolation)

	// ErrMissingMetadata indicates a column with no metadata entry
	ErrMissingMetadata = fmt.Errorf("%w: missing build metadata", ErrContractViolation)

	// ErrUnknownEncoding indicates an encoding version with no scheme
	ErrUnknownEncoding = errors.New("unknown encoding version")
)
