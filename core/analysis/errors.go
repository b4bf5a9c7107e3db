package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an analysis could not produce a result.
type ErrorKind int

const (
	// KindNoFunctionFound means the locator found no function or method declaration.
	KindNoFunctionFound ErrorKind = iota

	// KindUnparsableInput means the source could not be tokenized or parsed at all.
	KindUnparsableInput

	// KindEmptyBody means a declaration was found but no body could be isolated.
	KindEmptyBody

	// KindUnsupportedLanguage means no pipeline is registered for the language tag.
	KindUnsupportedLanguage
)

var kindNames = map[ErrorKind]string{
	KindNoFunctionFound:     "no_function_found",
	KindUnparsableInput:     "unparsable_input",
	KindEmptyBody:           "empty_or_unlocatable_body",
	KindUnsupportedLanguage: "unsupported_language",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var (
	ErrNoFunctionFound     = errors.New("no function declaration found")
	ErrUnparsableInput     = errors.New("source could not be parsed")
	ErrEmptyBody           = errors.New("function body is empty or could not be located")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

var kindSentinels = map[ErrorKind]error{
	KindNoFunctionFound:     ErrNoFunctionFound,
	KindUnparsableInput:     ErrUnparsableInput,
	KindEmptyBody:           ErrEmptyBody,
	KindUnsupportedLanguage: ErrUnsupportedLanguage,
}

// Error is the single error result of every analysis operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the kind's sentinel and the cause, so errors.Is works
// against either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NoFunctionFound(language Language) *Error {
	return NewError(KindNoFunctionFound, fmt.Sprintf("no %s function declaration found", language), nil)
}

func Unparsable(language Language, cause error) *Error {
	return NewError(KindUnparsableInput, fmt.Sprintf("%s source could not be parsed", language), cause)
}

func EmptyBody(name string) *Error {
	return NewError(KindEmptyBody, fmt.Sprintf("body of %q is empty or could not be located", name), nil)
}

// KindOf extracts the ErrorKind from err. The second result is false when
// err is not an analysis error.
func KindOf(err error) (ErrorKind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
