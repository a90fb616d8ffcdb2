package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrGroupInUse        = errors.New("campaign group is referenced by campaigns")
	ErrImmutableChannel  = errors.New("campaign group channel cannot change")
	ErrReadOnlySeries    = errors.New("series is fed by an API and cannot be edited")
	ErrReportsDisabled   = errors.New("report generation is not configured")
)
