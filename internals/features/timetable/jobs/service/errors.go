package service

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrClassNotFound     = errors.New("class not found")
	ErrInvalidTransition = errors.New("job status cannot move to the requested state")
	ErrNoMessage         = errors.New("no message available")
	ErrMalformedMessage  = errors.New("malformed queue message")
	ErrQueueUnavailable  = errors.New("job queue is not configured")
)
