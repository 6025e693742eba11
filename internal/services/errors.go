package services

// Request-level errors

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// Pipeline stage errors. Each stage surfaces exactly one of these so the
// orchestrator can apply its degrade policy without string matching.

// InvalidInputError means the extraction input did not match any recognized
// source shape (e.g. a URL that is not a YouTube watch or short link).
type InvalidInputError struct{ Message string }

func (e *InvalidInputError) Error() string { return e.Message }

// PersistenceError means a record create or update failed. Always fatal.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence failed during " + e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError carries the text-model provider's error message.
type GenerationError struct{ Message string }

func (e *GenerationError) Error() string { return e.Message }

// SynthesisError carries the voice provider's error message.
type SynthesisError struct{ Message string }

func (e *SynthesisError) Error() string { return e.Message }
