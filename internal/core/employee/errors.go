package employee

import "errors"

var (
	ErrInvalidID               = errors.New("employee: invalid id")
	ErrInvalidEmployeeID       = errors.New("employee: invalid employee id")
	ErrInvalidFirstName        = errors.New("employee: invalid first name")
	ErrInvalidLastName         = errors.New("employee: invalid last name")
	ErrInvalidStatus           = errors.New("employee: invalid status")
	ErrInvalidProfile          = errors.New("employee: invalid profile")
	ErrInvalidAttachment       = errors.New("employee: invalid attachment")
	ErrAutoUpdatedReadOnly     = errors.New("employee: autoUpdated can only be set by the probation scheduler")
	ErrInvalidActor            = errors.New("employee: actor identity is required")
	ErrInvalidPageSize         = errors.New("employee: invalid page size")
	ErrInvalidPageToken        = errors.New("employee: invalid page token")
	ErrEmployeeNotFound        = errors.New("employee: not found")
	ErrEmployeeIDAlreadyExists = errors.New("employee: employee id already exists")
)
