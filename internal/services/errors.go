package services

import "errors"

var (
	// ErrMalformedPayload marks a source object whose JSON cannot be decoded.
	ErrMalformedPayload = errors.New("malformed transcript payload")
	// ErrListing marks a failed enumeration of a bucket. It aborts the request.
	ErrListing = errors.New("listing failed")
)
