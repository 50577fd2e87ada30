package selector

import "fmt"

// ErrGenerationFailed reports an exhausted generation chain: no model
// produced content passing the structural check.
type ErrGenerationFailed struct {
	Attempts int
	Err      error
}

func (e *ErrGenerationFailed) Error() string {
	return fmt.Sprintf("content generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrGenerationFailed) Unwrap() error { return e.Err }

// ErrGradingOutOfRange reports a grading score outside [0,100] that
// persisted through the single grading retry.
type ErrGradingOutOfRange struct {
	Score float64
}

func (e *ErrGradingOutOfRange) Error() string {
	return fmt.Sprintf("grading score %v outside [0, 100]", e.Score)
}

// ErrNoProviders reports a selector constructed without a generation
// chain being asked to generate.
type ErrNoProviders struct{}

func (e *ErrNoProviders) Error() string {
	return "no reusable content matched and no generation providers are configured"
}
