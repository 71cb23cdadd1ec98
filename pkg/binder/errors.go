package binder

import "errors"

// Common binding errors
var (
	// ErrBinderNotApplicable signals that the binder does not apply to the
	// request (wrong method or content type) and the next binder should run.
	ErrBinderNotApplicable = errors.New("binder not applicable to request")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrMissingContentType   = errors.New("missing content type")
)
