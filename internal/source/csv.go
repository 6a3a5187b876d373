package source

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// Columns required in the CSV header. Their order in the file is free.
var csvColumns = []string{"date", "blood_glucose", "carbs", "protein", "fat"}

// CSVFile reads delimited text with a header row naming csvColumns.
// All fields are text; numeric fields are parsed as float64.
type CSVFile struct {
	path   string
	person domain.Person
}

var _ Reader = (*CSVFile)(nil)

// NewCSVFile creates a reader for the CSV dataset at path.
func NewCSVFile(path string, person domain.Person) *CSVFile {
	return &CSVFile{path: path, person: person}
}

// Name returns the dataset's file name.
func (s *CSVFile) Name() string { return filepath.Base(s.path) }

// Person returns the person the dataset belongs to.
func (s *CSVFile) Person() domain.Person { return s.person }

// Read parses the whole file.
func (s *CSVFile) Read(ctx context.Context) ([]domain.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	defer f.Close()

	return s.parse(csv.NewReader(f))
}

func (s *CSVFile) parse(r *csv.Reader) ([]domain.Measurement, error) {
	r.TrimLeadingSpace = true
	// Rows may carry extra trailing columns; only the named ones must exist.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, malformed(s.Name(), "", errMissingHeader)
	}
	if err != nil {
		return nil, s.readError(err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	maxIndex := 0
	for _, col := range csvColumns {
		i, ok := index[col]
		if !ok {
			return nil, malformed(s.Name(), col, errMissingColumn)
		}
		maxIndex = max(maxIndex, i)
	}

	var out []domain.Measurement
	for i := 0; ; i++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, s.readError(err)
		}
		if len(row) <= maxIndex {
			return nil, &RecordError{Source: s.Name(), Index: i, Err: errShortRow}
		}

		m, recErr := s.measurement(row, index)
		if recErr != nil {
			recErr.Source, recErr.Index = s.Name(), i
			return nil, recErr
		}
		out = append(out, m)
	}

	return out, nil
}

func (s *CSVFile) measurement(row []string, index map[string]int) (domain.Measurement, *RecordError) {
	date, err := domain.ParseTimestamp(row[index["date"]])
	if err != nil {
		return domain.Measurement{}, &RecordError{Field: "date", Err: err}
	}

	var values [4]float64
	for i, col := range csvColumns[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[index[col]]), 64)
		if err != nil {
			return domain.Measurement{}, &RecordError{Field: col, Err: err}
		}
		values[i] = v
	}

	return domain.Measurement{
		Date:         date,
		BloodGlucose: values[0],
		Carbs:        values[1],
		Protein:      values[2],
		Fat:          values[3],
	}, nil
}

// readError classifies errors from encoding/csv: syntax problems are
// malformed records, anything else is an I/O failure.
func (s *CSVFile) readError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &RecordError{Source: s.Name(), Index: parseErr.Line - 2, Err: err}
	}
	return unavailable(s.Name(), err)
}
