package api

import (
	"encoding/json"
	"time"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// CreateTaskRequest is the body of POST /tasks. Both bounds are inclusive.
type CreateTaskRequest struct {
	StartDate string `json:"start_date" validate:"required,iso8601"`
	EndDate   string `json:"end_date"   validate:"required,iso8601"`
}

// TaskResponse describes a task. The error fields are only set for failed tasks.
type TaskResponse struct {
	ID           int64     `json:"id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// DataRowResponse is one ingested observation.
type DataRowResponse struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Person       string    `json:"person"`
	Date         NaiveTime `json:"date"`
	BloodGlucose float64   `json:"blood_glucose"`
	Carbs        float64   `json:"carbs"`
	Protein      float64   `json:"protein"`
	Fat          float64   `json:"fat"`
	DietType     string    `json:"diet_type"`
}

// naiveLayout renders a wall-clock reading without an offset. Fractional
// seconds are kept to microseconds and trailing zeros dropped.
const naiveLayout = "2006-01-02T15:04:05.999999"

// NaiveTime is a timestamp without a zone, encoded as e.g.
// "2024-01-01T08:00:00".
type NaiveTime time.Time

// Time returns t as a time.Time in UTC.
func (t NaiveTime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON implements json.Marshaler.
func (t NaiveTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(naiveLayout))
}

// UnmarshalJSON implements json.Unmarshaler. Any offset is dropped.
func (t *NaiveTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := domain.ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = NaiveTime(parsed)
	return nil
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
		ErrorKind:    string(t.ErrorKind),
		ErrorMessage: t.ErrorMessage,
	}
}

func dataRowToResponse(r *domain.DataRow) DataRowResponse {
	return DataRowResponse{
		ID:           r.ID,
		TaskID:       r.TaskID,
		Person:       string(r.Person),
		Date:         NaiveTime(r.Date),
		BloodGlucose: r.BloodGlucose,
		Carbs:        r.Carbs,
		Protein:      r.Protein,
		Fat:          r.Fat,
		DietType:     string(r.DietType),
	}
}
