package domain

import "errors"

var (
	// ErrParticipantNotFound is returned when no participant record exists for an id.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrQuestionNotFound indicates there is no question for the requested level.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyCompleted is returned when completion time is already recorded.
	ErrAlreadyCompleted = errors.New("participant already completed the quest")
	// ErrGatewayUnavailable indicates no chat bridge is connected to deliver messages.
	ErrGatewayUnavailable = errors.New("notification gateway unavailable")
)
