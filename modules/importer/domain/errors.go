package domain

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

var (
	ErrUnknownSource = errors.New("unknown import source")
	ErrNoSheet       = errors.New("sheet not found")
	ErrTooFewRows    = errors.New("too few rows")
	ErrMissingInput  = errors.New("input path is required")
)

type UnknownSourceError struct {
	Name string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown import source %q (valid: %s)", e.Name, strings.Join(SourceNames(), ", "))
}

func (e *UnknownSourceError) Unwrap() error {
	return ErrUnknownSource
}

// SheetError names the sheet a required-sheet or row-count check failed on.
type SheetError struct {
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}
