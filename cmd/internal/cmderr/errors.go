package cmderr

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitErr specific error for ExitOnErr function that passes the exit code and error caused.
type ExitErr struct {
	Code  int
	Cause error
}

func (x ExitErr) Error() string { return x.Cause.Error() }

func (x ExitErr) Unwrap() error { return x.Cause }

// Exit codes of the failed commands.
const (
	CodeInternal = 1
	CodeFailed   = 2
)

// Wrap attaches the exit code to the error. Returns nil if err is nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return ExitErr{Code: code, Cause: err}
}

// Code returns the exit code of the error: zero for nil, the attached one
// for ExitErr and CodeInternal for any other error.
func Code(err error) int {
	if err == nil {
		return 0
	}

	var e ExitErr
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInternal
}

// ExitOnErr writes error to os.Stderr and calls os.Exit with passed exit code or by default 1.
// Does nothing if err is nil.
func ExitOnErr(err error) {
	if err != nil {
		printErr(os.Stderr, err)
		os.Exit(Code(err))
	}
}

func printErr(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
}
