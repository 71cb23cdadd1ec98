package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session.errors.session_not_found")
	ErrSessionExpired  = errors.New("session.errors.session_expired")
	ErrFailedToEncode  = errors.New("session.errors.failed_to_encode_session")
	ErrFailedToDecode  = errors.New("session.errors.failed_to_decode_session")
	ErrStoreFailure    = errors.New("session.errors.store_failure")
)
