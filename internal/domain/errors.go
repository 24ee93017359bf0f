package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrArtifactLoad signals that a serialized artifact could not be decoded.
	ErrArtifactLoad = errors.New("artifact load failed")
	// ErrNonNumeric signals columns that stayed non-numeric after coercion.
	ErrNonNumeric = errors.New("non-numeric columns before scaling")
	// ErrNonFinite signals NaN values after alignment/scaling.
	ErrNonFinite = errors.New("non-finite values after alignment/scaling")
	// ErrUnsupportedModel signals an unknown model artifact type.
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// NonNumericError wraps ErrNonNumeric with the offending columns and their raw values.
type NonNumericError struct {
	Values map[string]any
}

func (e *NonNumericError) Error() string {
	cols := make([]string, 0, len(e.Values))
	for c := range e.Values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%v", c, e.Values[c])
	}
	return fmt.Sprintf("%s: [%s]. Values: {%s}",
		ErrNonNumeric.Error(), strings.Join(cols, " "), strings.Join(parts, ", "))
}

func (e *NonNumericError) Unwrap() error { return ErrNonNumeric }

// NewNonNumeric creates a NonNumericError for the given column values.
func NewNonNumeric(values map[string]any) error {
	return &NonNumericError{Values: values}
}

// NonFiniteError wraps ErrNonFinite with the offending columns.
type NonFiniteError struct {
	Columns []string
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: check the submitted values for columns %v",
		ErrNonFinite.Error(), e.Columns)
}

func (e *NonFiniteError) Unwrap() error { return ErrNonFinite }

// NewNonFinite creates a NonFiniteError for the given columns.
func NewNonFinite(columns []string) error {
	return &NonFiniteError{Columns: columns}
}
