package audit

import "errors"

var (
	ErrInvalidAction      = errors.New("audit: invalid action")
	ErrInvalidResource    = errors.New("audit: invalid target resource")
	ErrInvalidPerformedBy = errors.New("audit: invalid performed by")
	ErrInvalidLimit       = errors.New("audit: invalid limit")
)
