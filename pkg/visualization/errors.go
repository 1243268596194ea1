package visualization

import "errors"

var (
	// ErrInvalidDistance is returned for non-finite or non-positive link
	// distances and for distances keyed by an unknown link type.
	ErrInvalidDistance = errors.New("invalid link distance")

	// ErrUnknownLinkType is returned when enabling a link type outside the
	// known set.
	ErrUnknownLinkType = errors.New("unknown link type")

	// ErrInvalidViewport is returned for non-finite or non-positive sizes.
	ErrInvalidViewport = errors.New("invalid viewport")
)
