package dao

import "errors"

// Store errors; callers match them with errors.Is.
var (
	ErrNotFound  = errors.New("dao: entity not found")
	ErrInvalidID = errors.New("dao: empty entity id")
	ErrNilEntity = errors.New("dao: nil entity")
)
