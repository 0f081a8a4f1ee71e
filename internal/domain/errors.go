package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadySettled = errors.New("pick already settled")
	ErrNotFinished    = errors.New("match not finished")
)
