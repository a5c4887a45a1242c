package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCatalogNotFound indicates the question catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrQuestionNotFound indicates the sequence references an ID missing from the
	// catalog. This is a configuration error; it should surface at startup, not mid-session.
	ErrQuestionNotFound = errors.New("question not found in catalog")
	// ErrQuizIncomplete is returned when the result is requested before the last question.
	ErrQuizIncomplete = errors.New("quiz not completed")
	// ErrInvalidContact is returned when neither a plausible email nor phone was supplied.
	ErrInvalidContact = errors.New("a valid email or phone number is required")
	// ErrSubmitInFlight is returned when a submission is already outstanding.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrAlreadyRevealed is returned on submit after a successful reveal.
	ErrAlreadyRevealed = errors.New("result already revealed")
	// ErrOutcomeNotMapped indicates a (tag, band) pair missing from the assignment
	// table. Like ErrQuestionNotFound this means a broken build.
	ErrOutcomeNotMapped = errors.New("no outcome mapped for tag/band combination")
)
