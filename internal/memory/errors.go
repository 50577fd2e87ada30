package memory

import "errors"

// Sentinel errors for the memory package.
// Use errors.Is to check: errors.Is(err, memory.ErrInvalidRating).
var (
	ErrInvalidRating  = errors.New("memory: invalid rating")
	ErrInvalidWeights = errors.New("memory: weights out of bounds")
	ErrInvalidConfig  = errors.New("memory: invalid scheduler config")
)
