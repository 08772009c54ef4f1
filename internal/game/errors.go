package game

import "errors"

// Every failure crossing the package boundary wraps one of these sentinels
// so the HTTP layer can map it to a status without string matching.
var (
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid input")
	ErrUpstream   = errors.New("storage failure")
	ErrExternal   = errors.New("external service failure")
)
