package controller

import "errors"

var (
	// ErrBusy rejects an operation while a previous one is still in flight.
	ErrBusy = errors.New("another operation is in flight")

	// ErrInvalidState rejects an operation invoked from the wrong state.
	ErrInvalidState = errors.New("operation not valid in current state")

	ErrEmptyAnswer        = errors.New("answer is empty")
	ErrSessionCreate      = errors.New("failed to create interview session")
	ErrQuestionGeneration = errors.New("failed to generate question")
	ErrAnalysis           = errors.New("failed to analyze answer")
	ErrResponseSave       = errors.New("failed to save response")

	ErrSessionNotFound = errors.New("no active session")
	ErrNotOwner        = errors.New("session belongs to another user")
)
