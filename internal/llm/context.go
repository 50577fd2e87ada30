package llm

import "context"

// Purpose labels attached to outgoing calls. They are persisted on the
// event log, so renaming one splits historical usage aggregates.
const (
	PurposeGeneration = "content-gen"
	PurposeGrading    = "content-grading"
)

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose tags the context with what the upcoming call is for; the
// label ends up on the logged event.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context, "unknown" if
// none was attached.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
