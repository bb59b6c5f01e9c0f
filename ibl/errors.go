package ibl

import "errors"

var (
	// ErrInput is returned for unusable input images and configurations.
	ErrInput = errors.New("invalid input")
	// ErrResource is returned when a backend cannot allocate or render.
	ErrResource = errors.New("resource failure")
	// ErrFilesystem is returned for output directory and write failures.
	ErrFilesystem = errors.New("filesystem failure")
	ErrSchedule   = errors.New("invalid mip schedule")
	// ErrState is returned when pipeline operations are called out of order.
	ErrState = errors.New("invalid pipeline state")
)
