package placement

import (
	"encoding"
	"fmt"
)

// Status tracks a placement test through its lifecycle.
type Status int

const (
	AwaitingFirstQuestion Status = iota + 1
	InProgress
	Completed
	Abandoned
)

var (
	statusNames = [...]string{
		AwaitingFirstQuestion: "awaiting_first_question",
		InProgress:            "in_progress",
		Completed:             "completed",
		Abandoned:             "abandoned",
	}
	statusByName = map[string]Status{
		"awaiting_first_question": AwaitingFirstQuestion,
		"in_progress":             InProgress,
		"completed":               Completed,
		"abandoned":               Abandoned,
	}
)

var (
	_ fmt.Stringer             = Status(0)
	_ encoding.TextMarshaler   = Status(0)
	_ encoding.TextUnmarshaler = (*Status)(nil)
)

// IsValid reports whether s is a declared status.
func (s Status) IsValid() bool {
	return s >= AwaitingFirstQuestion && s <= Abandoned
}

// Terminal reports whether the test can no longer accept answers.
func (s Status) Terminal() bool {
	return s == Completed || s == Abandoned
}

// String returns the wire-format name.
func (s Status) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("placement: invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v, ok := statusByName[string(text)]
	if !ok {
		return fmt.Errorf("placement: invalid status %q", text)
	}
	*s = v
	return nil
}
