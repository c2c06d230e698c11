package model

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound      = errors.New("resource not found")
	ErrStoryNotFound = errors.New("story not found")

	// Request Errors
	ErrInvalidInput = errors.New("invalid input data")
	ErrBadRequest   = errors.New("bad request")

	// Pipeline Errors
	ErrWriterFailed   = errors.New("story writer stage failed")
	ErrAssemblyFailed = errors.New("failed to assemble story record")

	// General Server Errors
	ErrInternalServer = errors.New("internal server error")
)
