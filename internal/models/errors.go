package models

import "errors"

// Sentinel errors for every reportable condition. Callers wrap them with
// context using fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrNotInitialized     = errors.New("repository not initialized")
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrDuplicateName      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrNoTarget           = errors.New("no commit to point at")
	ErrBadSyntax          = errors.New("bad syntax")
	ErrUnknownCommand     = errors.New("unknown command")
)

// ErrorKind names an error category for reporting.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindNotInitialized     ErrorKind = "NotInitialized"
	KindAlreadyInitialized ErrorKind = "AlreadyInitialized"
	KindDuplicateName      ErrorKind = "DuplicateName"
	KindNotFound           ErrorKind = "NotFound"
	KindNoTarget           ErrorKind = "NoTarget"
	KindBadSyntax          ErrorKind = "BadSyntax"
	KindUnknownCommand     ErrorKind = "UnknownCommand"
	KindInternal           ErrorKind = "Internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotInitialized, KindNotInitialized},
	{ErrAlreadyInitialized, KindAlreadyInitialized},
	{ErrDuplicateName, KindDuplicateName},
	{ErrNotFound, KindNotFound},
	{ErrNoTarget, KindNoTarget},
	{ErrBadSyntax, KindBadSyntax},
	{ErrUnknownCommand, KindUnknownCommand},
}

// KindOf returns the category of err. Unrecognised errors are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
