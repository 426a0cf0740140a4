package arraystore

import "github.com/pkg/errors"

// FatalError marks a condition that is always a programming error rather
// than a recoverable one: misuse of the empty sentinel, or an append source
// whose shape the implementation does not recognise. Both are signalled by
// panicking with a *FatalError; the embedding VM's top-level driver is
// responsible for turning that panic into whatever "terminate the host
// process" means for it (a hard exit for a standalone script, a failed test
// for a unit test, a REPL error line for an interactive session).
type FatalError struct {
	cause error
}

func (e *FatalError) Error() string { return e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

func newFatal(format string, args ...interface{}) *FatalError {
	return &FatalError{cause: errors.Errorf(format, args...)}
}

// panicEmptyMisuse signals a read or non-trivial range operation against the
// shared empty sentinel — always a caller bug, never a runtime condition.
func panicEmptyMisuse(op string) {
	panic(newFatal("arraystore: %s on the empty sentinel store is a caller error", op))
}

// PanicUnsupportedShape signals an appendArray source whose shape the object
// builder does not recognise — it exists to surface incomplete extensions
// during development (a fifth shape added without updating the builder).
func PanicUnsupportedShape(shape Shape) {
	panic(newFatal("arraystore: unsupported store shape in append: %s", shape))
}
