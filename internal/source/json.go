package source

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// jsonRecord mirrors one element of the JSON dataset. Pointers detect
// missing fields.
type jsonRecord struct {
	Date         *string  `json:"date"`
	BloodGlucose *float64 `json:"blood_glucose"`
	Carbs        *float64 `json:"carbs"`
	Protein      *float64 `json:"protein"`
	Fat          *float64 `json:"fat"`
}

// JSONFile reads a JSON array of {date, blood_glucose, carbs, protein, fat}.
type JSONFile struct {
	path   string
	person domain.Person
}

var _ Reader = (*JSONFile)(nil)

// NewJSONFile creates a reader for the JSON dataset at path.
func NewJSONFile(path string, person domain.Person) *JSONFile {
	return &JSONFile{path: path, person: person}
}

// Name returns the dataset's file name.
func (s *JSONFile) Name() string { return filepath.Base(s.path) }

// Person returns the person the dataset belongs to.
func (s *JSONFile) Person() domain.Person { return s.person }

// Read decodes the whole file.
func (s *JSONFile) Read(ctx context.Context) ([]domain.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, malformed(s.Name(), typeErr.Field, err)
		}
		return nil, malformed(s.Name(), "", err)
	}

	out := make([]domain.Measurement, 0, len(records))
	for i, rec := range records {
		m, err := rec.measurement()
		if err != nil {
			err.Source, err.Index = s.Name(), i
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}

func (r jsonRecord) measurement() (domain.Measurement, *RecordError) {
	if r.Date == nil {
		return domain.Measurement{}, &RecordError{Field: "date", Err: errMissingField}
	}
	date, err := domain.ParseTimestamp(*r.Date)
	if err != nil {
		return domain.Measurement{}, &RecordError{Field: "date", Err: err}
	}

	fields := []struct {
		name string
		val  *float64
	}{
		{"blood_glucose", r.BloodGlucose},
		{"carbs", r.Carbs},
		{"protein", r.Protein},
		{"fat", r.Fat},
	}
	for _, f := range fields {
		if f.val == nil {
			return domain.Measurement{}, &RecordError{Field: f.name, Err: errMissingField}
		}
	}

	return domain.Measurement{
		Date:         date,
		BloodGlucose: *r.BloodGlucose,
		Carbs:        *r.Carbs,
		Protein:      *r.Protein,
		Fat:          *r.Fat,
	}, nil
}
