package placement

import "errors"

var (
	// ErrTestFinished is returned when a terminal test receives another
	// question or answer.
	ErrTestFinished = errors.New("placement: test already finished")

	// ErrQuestionIndex is returned when an answer references a question
	// the test never asked.
	ErrQuestionIndex = errors.New("placement: question index out of range")

	// ErrAlreadyAnswered is returned when a question is answered twice.
	ErrAlreadyAnswered = errors.New("placement: question already answered")
)
