package core

import "errors"

// Failure classes surfaced to the HTTP layer. Adapters wrap their own
// errors with one of these so handlers can pick a user-facing message.
var (
	ErrUserNotResolved = errors.New("user not resolved")
	ErrFetch           = errors.New("data fetch failed")
	ErrWrite           = errors.New("write failed")
	ErrUpload          = errors.New("upload failed")
)
