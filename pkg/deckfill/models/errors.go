package models

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates a required input file or the template is absent.
var ErrFileNotFound = errors.New("file not found")

// ErrSchemaMismatch indicates an expected sheet or column is absent.
var ErrSchemaMismatch = errors.New("schema mismatch")

// ErrInvalidFormat indicates the input file is not a valid Office container.
var ErrInvalidFormat = errors.New("invalid file format")

// ResolveError reports a required input role with no matching file.
type ResolveError struct {
	Role string
	Dir  string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("no file for role %q in %s: %v", e.Role, e.Dir, ErrFileNotFound)
}

func (e *ResolveError) Unwrap() error {
	return ErrFileNotFound
}

// SchemaError reports a missing sheet or column in an input workbook.
type SchemaError struct {
	File   string
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: sheet %q has no column %q: %v", e.File, e.Sheet, e.Column, ErrSchemaMismatch)
	}
	return fmt.Sprintf("%s: no sheet %q: %v", e.File, e.Sheet, ErrSchemaMismatch)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}
