package domain

import (
	"errors"
	"time"
)

// Person identifies whose observations a data row holds.
type Person string

// DietType is derived from the person at ingestion time.
type DietType string

// Known persons and diet types.
const (
	PersonX Person = "Person X"
	PersonY Person = "Person Y"

	DietTypeVegetarian DietType = "Vegetarian"
	DietTypeNonVeg     DietType = "Non Veg"
)

// Data row validation errors
var (
	ErrEmptyDataRowTaskID = errors.New("data row task ID cannot be empty")
	ErrEmptyPerson        = errors.New("data row person cannot be empty")
	ErrEmptyDataRowDate   = errors.New("data row date cannot be empty")
	ErrDietTypeMismatch   = errors.New("data row diet type does not match person")
)

// DietTypeFor returns the diet type recorded for p.
func DietTypeFor(p Person) DietType {
	if p == PersonX {
		return DietTypeVegetarian
	}
	return DietTypeNonVeg
}

// Measurement is one raw observation read from an ingestion source.
type Measurement struct {
	Date         time.Time
	BloodGlucose float64
	Carbs        float64
	Protein      float64
	Fat          float64
}

// DataRow is one ingested observation attributed to a person and a task.
// Rows are never mutated after creation.
type DataRow struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Person       Person    `json:"person"`
	Date         time.Time `json:"date"`
	BloodGlucose float64   `json:"blood_glucose"`
	Carbs        float64   `json:"carbs"`
	Protein      float64   `json:"protein"`
	Fat          float64   `json:"fat"`
	DietType     DietType  `json:"diet_type"`
}

// NewDataRow builds a row for taskID from m, deriving the diet type from person.
func NewDataRow(taskID int64, person Person, m Measurement) (*DataRow, error) {
	row := &DataRow{
		TaskID:       taskID,
		Person:       person,
		Date:         Naive(m.Date),
		BloodGlucose: m.BloodGlucose,
		Carbs:        m.Carbs,
		Protein:      m.Protein,
		Fat:          m.Fat,
		DietType:     DietTypeFor(person),
	}

	if err := row.Validate(); err != nil {
		return nil, err
	}

	return row, nil
}

// Validate checks if the DataRow has valid data.
func (r *DataRow) Validate() error {
	if r.TaskID <= 0 {
		return ErrEmptyDataRowTaskID
	}
	if r.Person == "" {
		return ErrEmptyPerson
	}
	if r.Date.IsZero() {
		return ErrEmptyDataRowDate
	}
	if r.DietType != DietTypeFor(r.Person) {
		return ErrDietTypeMismatch
	}
	return nil
}
