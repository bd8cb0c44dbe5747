package domain

import "errors"

var (
	// ErrScanNotFound is returned when no scan record matches a message hash
	ErrScanNotFound = errors.New("scan record not found")
	// ErrSubjectNotFound is returned when a subject id is unknown
	ErrSubjectNotFound = errors.New("subject not found")
)
