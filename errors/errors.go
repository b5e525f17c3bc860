package errors

import (
	stdErr "errors"
	"fmt"
	"runtime"
)

var RuntimeFileInfo = false

// Kind classifies an error for callers that need to react to its category
// (the HTTP layer maps kinds to status codes).
type Kind string

const (
	KindUnknown         Kind = ""
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
)

type kindError struct {
	kind Kind
	msg  string
	err  error
}

func (k *kindError) Error() string { return k.msg }

func (k *kindError) Unwrap() error { return k.err }

// E builds an error of the given kind. A trailing %w verb wraps its operand.
func E(kind Kind, format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &kindError{kind: kind, msg: wrapped.Error(), err: Unwrap(wrapped)}
}

// KindOf returns the first kind found walking err's chain outwards-in. Errors
// that implement Kind() Kind are honoured as well.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *kindError:
			return e.kind
		case interface{ Kind() Kind }:
			return e.Kind()
		}
		err = Unwrap(err)
	}
	return KindUnknown
}

func As(err error, target any) bool {
	return stdErr.As(err, target)
}

func Is(err, target error) bool {
	return stdErr.Is(err, target)
}

func Join(errs ...error) error {
	return stdErr.Join(errs...)
}

func New(text string) error {
	return stdErr.New(text)
}

func Newf(text string, args ...any) error {
	return fmt.Errorf(text, args...)
}

func Unwrap(err error) error {
	return stdErr.Unwrap(err)
}

func Wrap(err error, msg string, args ...any) error {
	if err == nil {
		return err
	}
	if RuntimeFileInfo {
		pc, file, line, ok := runtime.Caller(1)
		if ok {
			msg += " function=%s file=%s line=%d"
			rf := runtime.FuncForPC(pc)
			args = append(args, rf.Name(), file, line)
		}
	}

	msg += ": %w"
	args = append(args, err)

	return fmt.Errorf(msg, args...)
}
