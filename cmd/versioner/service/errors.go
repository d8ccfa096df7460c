package service

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses;
// callers distinguish corruption (fatal for the version, never
// retried) from conflicts (retryable) from validation and not-found.
var (
	// Not found
	ErrPluginNotFound  = errors.New("plugin not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrTagNotFound     = errors.New("tag not found")

	// Conflict
	ErrConcurrentCommit = errors.New("concurrent commit conflict")
	ErrDuplicateTag     = errors.New("tag name already exists")

	// Corruption
	ErrBrokenChain       = errors.New("version chain is broken")
	ErrSnapshotMissing   = errors.New("snapshot record missing")
	ErrPatchApplyFailure = errors.New("patch replay failed")

	// Validation
	ErrInvalidInput        = errors.New("invalid input")
	ErrDiffComputation     = errors.New("diff computation failed")
	ErrConstraintViolation = errors.New("manifest constraint violated")
)
