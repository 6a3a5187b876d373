package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// Errors returned by readers. The processor maps them to task error kinds.
var (
	// ErrSourceUnavailable is returned when a dataset cannot be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedRecord is returned when a record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)

// Reader loads every measurement of one dataset, attributed to one person.
type Reader interface {
	// Name identifies the dataset in logs and error messages.
	Name() string

	// Person is the person every measurement of this dataset belongs to.
	Person() domain.Person

	// Read returns the full dataset in file order.
	Read(ctx context.Context) ([]domain.Measurement, error)
}

// RecordError pinpoints a malformed record. Index is zero-based over data
// records (the CSV header is not counted) and is negative when the problem
// is not tied to one record. Field is empty when unknown.
type RecordError struct {
	Source string
	Index  int
	Field  string
	Err    error
}

// Location names the source, record and field that failed, without the
// cause, e.g. `person_y.csv: record 1: field "carbs"`.
func (e *RecordError) Location() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": record %d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	return b.String()
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return e.Location() + ": " + e.Err.Error()
}

// Unwrap exposes ErrMalformedRecord and the underlying cause.
func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// UnavailableError reports a dataset that could not be opened or read.
type UnavailableError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSourceUnavailable, e.Source, e.Err)
}

// Unwrap exposes ErrSourceUnavailable and the underlying cause.
func (e *UnavailableError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

func unavailable(name string, err error) error {
	return &UnavailableError{Source: name, Err: err}
}

// malformed reports a problem that affects the whole dataset rather than
// one record.
func malformed(name, field string, err error) *RecordError {
	return &RecordError{Source: name, Index: -1, Field: field, Err: err}
}

var (
	errMissingField  = errors.New("missing field")
	errMissingHeader = errors.New("missing header row")
	errMissingColumn = errors.New("column missing from header")
	errShortRow      = errors.New("row has too few fields")
)
