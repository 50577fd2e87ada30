package learner

import "errors"

// Sentinel errors for the learner package.
// Check with errors.Is, e.g. errors.Is(err, learner.ErrScoreOutOfRange).
var (
	ErrScoreOutOfRange = errors.New("learner: score outside [0, 100]")
	ErrUnknownSkill    = errors.New("learner: unknown skill")
)
