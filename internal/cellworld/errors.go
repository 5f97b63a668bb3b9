package cellworld

import "errors"

// ErrCoordOutOfRange is returned by coordinate-addressed World operations
// when (x,y) falls outside [0,Width)x[0,Height).
var ErrCoordOutOfRange = errors.New("coordinate out of range")
