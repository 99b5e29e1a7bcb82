package domain

import "errors"

var (
	// ErrMaxDepthExceeded is returned when attaching an activity child
	// would push the category tree beyond MaxActivityDepth levels.
	ErrMaxDepthExceeded = errors.New("activity depth limit exceeded")

	// ErrAlreadyExists is returned on create when an object with the
	// same id is already persisted.
	ErrAlreadyExists = errors.New("object already exists")

	// ErrDoesNotExist is returned on update or delete of a missing id.
	// Single-object reads report absence as (nil, nil), not as an error.
	ErrDoesNotExist = errors.New("object does not exist")
)
