package forecast

import "errors"

// Terminal forecast failures. Callers match them with errors.Is.
var (
	ErrEmptyHistory        = errors.New("history is empty")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrTargetNotInFuture   = errors.New("Target date must be in the future!")
	ErrModelInvocation     = errors.New("model invocation failed")
	ErrInvalidPrediction   = errors.New("model returned a non-finite prediction")
)
