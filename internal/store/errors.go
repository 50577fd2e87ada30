package store

import "fmt"

// ErrVersionConflict indicates a profile save lost the race: the stored
// version no longer matches the version the caller read. Callers re-read
// and retry.
type ErrVersionConflict struct {
	UserID   string
	Language string
	Expected int64
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("store: profile %s/%s version conflict (expected %d)", e.UserID, e.Language, e.Expected)
}
