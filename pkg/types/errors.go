package types

import "errors"

// ErrInvalidParameter is returned when a caller passes an identifier or value
// outside of what the catalog or the playback state machine accepts.
var ErrInvalidParameter = errors.New("invalid parameter")
