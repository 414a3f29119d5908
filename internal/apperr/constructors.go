package apperr

import "fmt"

func InvalidCredentials() *Error {
	return New(CodeInvalidCredentials, "invalid username or password")
}

// Rejected reports a todo whose text is empty after trimming.
func Rejected() *Error {
	return New(CodeRejected, "todo text is empty")
}

func OutOfRange(index, length int) *Error {
	return New(CodeOutOfRange, fmt.Sprintf("index out of range: have %d, got %d", length, index)).
		WithDetail("index", index).
		WithDetail("length", length)
}

// StoreCorrupt reports persisted data under key that cannot be decoded.
func StoreCorrupt(key string, cause error) *Error {
	return Wrap(cause, CodeStoreCorrupt, fmt.Sprintf("stored value for %q is corrupt", key)).
		WithDetail("key", key)
}

func StoreIO(op string, cause error) *Error {
	return Wrap(cause, CodeStoreIO, fmt.Sprintf("store %s failed", op)).
		WithDetail("op", op)
}

func InvalidInput(reason string) *Error {
	return New(CodeInvalidInput, reason)
}

func ConfigInvalid(reason string) *Error {
	return New(CodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}
