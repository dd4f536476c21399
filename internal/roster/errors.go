package roster

import (
	"fmt"
	"strings"

	"attendance-portal/internal/apperr"
)

// SchemaError reports required header columns that are absent from the sheet.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: [%s]. found: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

func (e *SchemaError) Kind() apperr.Kind { return apperr.KindValidation }

// TypeCastError is a cell that could not be converted to its column type.
type TypeCastError struct {
	Row    int // 1-based sheet row, header is row 1
	Column string
	Value  string
	Want   string
}

func (e *TypeCastError) Error() string {
	return fmt.Sprintf("row %d: column %s: cannot convert %q to %s", e.Row, e.Column, e.Value, e.Want)
}

func (e *TypeCastError) Kind() apperr.Kind { return apperr.KindValidation }

// ParseError wraps whatever stopped the sheet from being read.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "error parsing excel file: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Kind() apperr.Kind { return apperr.KindValidation }
