package controllers

import "errors"

// Routes map these with errors.Is. Anything else is a storage failure.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoteNotFound  = errors.New("note not found")
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidInput  = errors.New("invalid input")
)
